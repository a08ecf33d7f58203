package summarize

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// shortParagraphChars はこの文字数以下の段落を箇条書きに変換する
const shortParagraphChars = 200

// headingRe はMarkdown見出し行
var headingRe = regexp.MustCompile(`(?m)^#{1,6}\s`)

// blankLineRe は段落区切り（空行）
var blankLineRe = regexp.MustCompile(`\n\s*\n`)

// formatSummary は統合要約を最終出力のMarkdownに整形する
// 生成段階は挟まない決定的な後処理
// 要約に見出しが無い場合は段落構造から Overview / Key Points / Conclusion を組み立てる
func formatSummary(summary, title string, generatedAt time.Time) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", title)

	body := strings.TrimSpace(summary)
	if headingRe.MatchString(body) {
		// すでに構造化されている場合はそのまま使う
		sb.WriteString(body)
	} else {
		sb.WriteString(structureParagraphs(body))
	}

	fmt.Fprintf(&sb, "\n\n---\n*Generated: %s*\n", generatedAt.Format("2006-01-02 15:04 MST"))

	return sb.String()
}

// structureParagraphs は見出しの無い要約を段落単位でセクション化する
// 最初の段落 = Overview、中間 = Key Points（短い段落は箇条書き化）、最後 = Conclusion
func structureParagraphs(body string) string {
	paragraphs := splitParagraphs(body)

	if len(paragraphs) <= 1 {
		return body
	}

	var sb strings.Builder

	sb.WriteString("## Overview\n\n")
	sb.WriteString(paragraphs[0])

	if len(paragraphs) > 2 {
		sb.WriteString("\n\n## Key Points\n\n")
		for i, p := range paragraphs[1 : len(paragraphs)-1] {
			if isBulletCandidate(p) {
				fmt.Fprintf(&sb, "- %s\n", collapseWhitespace(p))
				continue
			}
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(p)
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n## Conclusion\n\n")
	sb.WriteString(paragraphs[len(paragraphs)-1])

	return sb.String()
}

// splitParagraphs はテキストを空行区切りの段落に分割する
func splitParagraphs(body string) []string {
	parts := blankLineRe.Split(body, -1)
	paragraphs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		paragraphs = append(paragraphs, p)
	}
	return paragraphs
}

// isBulletCandidate は段落を箇条書きに変換すべきかを判定する
func isBulletCandidate(p string) bool {
	if strings.HasPrefix(p, "-") || strings.HasPrefix(p, "*") {
		// すでに箇条書き
		return false
	}
	return len(p) <= shortParagraphChars
}

// collapseWhitespace は段落内の改行・連続空白を1スペースにまとめる
func collapseWhitespace(p string) string {
	return strings.Join(strings.Fields(p), " ")
}
