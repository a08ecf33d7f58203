package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持する
type Config struct {
	// OpenAI設定
	OpenAI OpenAIConfig

	// Summarize設定
	Summarize SummarizeConfig

	// Throttle設定
	Throttle ThrottleConfig

	// Log設定
	Log LogConfig
}

// OpenAIConfig はOpenAI API設定
type OpenAIConfig struct {
	APIKey string
	Model  string
}

// SummarizeConfig は要約パイプラインの設定
type SummarizeConfig struct {
	// SamplingMethod はチャンク分割戦略名 (uniform / bookend / intelligent)
	SamplingMethod string

	// MaxTranscriptTokens は高品質モードの処理予算（推定トークン）
	MaxTranscriptTokens int

	// LongVideoMaxTokens は長尺動画モードの縮小予算
	LongVideoMaxTokens int

	// ChunkTargetTokens はチャンク1つあたりの目標トークン数
	ChunkTargetTokens int

	// MaxConcurrent はMap段階の並列度上限
	MaxConcurrent int

	// MaxAttempts は生成呼び出しの最大試行回数
	MaxAttempts int

	// MinTranscriptChars は検証で受理する最小文字数
	MinTranscriptChars int
}

// ThrottleConfig はレート制限の設定
// デフォルトは一般的な無償枠クォータを想定した値
type ThrottleConfig struct {
	RequestsPerMinute int
	TokensPerMinute   int
	MaxDailyRequests  int
}

// LogConfig はログ出力の設定
type LogConfig struct {
	Level  string // debug / info / warn / error
	Format string // json / text
}

// Load は環境変数または.envファイルから設定を読み込む
func Load(envFilePath string) (*Config, error) {
	// .envファイルが存在する場合は読み込む
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			// ファイルが存在しない場合はエラーとしない（環境変数のみで動作可能）
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load .env file: %w", err)
			}
		}
	}

	cfg := &Config{
		OpenAI: OpenAIConfig{
			APIKey: getEnv("OPENAI_API_KEY", ""),
			Model:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		},
		Summarize: SummarizeConfig{
			SamplingMethod:      getEnv("DIGEST_SAMPLING_METHOD", "intelligent"),
			MaxTranscriptTokens: getEnvAsInt("DIGEST_MAX_TRANSCRIPT_TOKENS", 12000),
			LongVideoMaxTokens:  getEnvAsInt("DIGEST_LONG_VIDEO_MAX_TOKENS", 6000),
			ChunkTargetTokens:   getEnvAsInt("DIGEST_CHUNK_TARGET_TOKENS", 2000),
			MaxConcurrent:       getEnvAsInt("DIGEST_MAX_CONCURRENT", 3),
			MaxAttempts:         getEnvAsInt("DIGEST_MAX_ATTEMPTS", 3),
			MinTranscriptChars:  getEnvAsInt("DIGEST_MIN_TRANSCRIPT_CHARS", 100),
		},
		Throttle: ThrottleConfig{
			RequestsPerMinute: getEnvAsInt("DIGEST_REQUESTS_PER_MINUTE", 15),
			TokensPerMinute:   getEnvAsInt("DIGEST_TOKENS_PER_MINUTE", 1_000_000),
			MaxDailyRequests:  getEnvAsInt("DIGEST_MAX_DAILY_REQUESTS", 1500),
		},
		Log: LogConfig{
			Level:  getEnv("DIGEST_LOG_LEVEL", "info"),
			Format: getEnv("DIGEST_LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返す
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt は環境変数を整数として取得する
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
