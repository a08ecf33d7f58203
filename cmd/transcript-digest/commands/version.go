package commands

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/urfave/cli/v3"
)

// VersionAction はバージョン情報を表示するコマンドのアクション
func VersionAction(_ context.Context, _ *cli.Command) error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		version = info.Main.Version
	}

	fmt.Printf("transcript-digest %s\n", version)
	return nil
}
