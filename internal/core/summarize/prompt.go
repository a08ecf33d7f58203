package summarize

import (
	"fmt"
	"math"
	"strings"
)

const (
	// MapTemperature はチャンク要約生成の温度設定
	// 決定論的寄りにする
	MapTemperature = 0.3

	// ReduceTemperature は統合要約生成の温度設定
	ReduceTemperature = 0.4

	// DefaultMapMaxTokens はチャンク要約の最大生成トークン数
	DefaultMapMaxTokens = 512

	// DefaultReduceMaxTokens は統合要約の最大生成トークン数
	DefaultReduceMaxTokens = 1536
)

// buildMapPrompt はチャンク1つ分の要約プロンプトを構築する
// チャンクが全体の何番目かを添えて、前後関係を踏まえた要約を促す
func buildMapPrompt(chunk string, index, total int) string {
	var sb strings.Builder

	sb.WriteString("You are summarizing one part of a longer video transcript.\n")
	fmt.Fprintf(&sb, "This is part %d of %d.\n\n", index+1, total)

	sb.WriteString("Guidelines:\n")
	sb.WriteString("- Summarize the main points of this part in a few short paragraphs\n")
	sb.WriteString("- Preserve concrete facts, numbers, and named entities\n")
	sb.WriteString("- Do not add information that is not in the transcript\n")
	sb.WriteString("- Do not mention that this is a partial transcript\n\n")

	sb.WriteString("## Transcript part\n")
	sb.WriteString(chunk)
	sb.WriteString("\n\n## Summary\n")

	return sb.String()
}

// buildReducePrompt はチャンク要約列を1つの要約に統合するプロンプトを構築する
// 各要約には元の動画内での位置を示すラベルを付ける
func buildReducePrompt(summaries []string) string {
	var sb strings.Builder

	sb.WriteString("You are combining partial summaries of a video transcript into one coherent summary.\n")
	sb.WriteString("The parts are listed in chronological order with their position in the video.\n\n")

	sb.WriteString("Guidelines:\n")
	sb.WriteString("- Write a single well-structured Markdown summary\n")
	sb.WriteString("- Merge overlapping points, keep the overall narrative flow\n")
	sb.WriteString("- Prefer an Overview / Key Points / Conclusion structure\n\n")

	for i, summary := range summaries {
		fmt.Fprintf(&sb, "## [%s]\n", positionLabel(i, len(summaries)))
		sb.WriteString(summary)
		sb.WriteString("\n\n")
	}

	sb.WriteString("## Combined summary\n")

	return sb.String()
}

// positionLabel はチャンクの動画内での位置を示すラベルを返す
// 先頭は "Beginning"、末尾は "End"、それ以外は進行率のパーセント表示
func positionLabel(index, total int) string {
	if index == 0 {
		return "Beginning"
	}
	if index == total-1 {
		return "End"
	}
	percent := int(math.Round(float64(index) / float64(total-1) * 100))
	return fmt.Sprintf("%d%% through", percent)
}
