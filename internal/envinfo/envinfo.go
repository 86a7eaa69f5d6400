// Package envinfo collects environment metadata attached to run reports.
package envinfo

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
)

// Collect gathers best-effort environment metadata. Fields that cannot be
// determined are simply omitted; collection never fails the run.
func Collect(ctx context.Context) map[string]string {
	env := map[string]string{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"num_cpu":    strconv.Itoa(runtime.NumCPU()),
	}
	if host, err := os.Hostname(); err == nil {
		env["hostname"] = host
	}

	for key, value := range goEnv(ctx, "GOVERSION", "GOTOOLCHAIN") {
		env[key] = value
	}
	return env
}

// goEnv shells out to `go env -json` and extracts the requested keys.
// Best-effort: a missing toolchain yields nothing.
func goEnv(ctx context.Context, keys ...string) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, "go", "env", "-json").Output()
	if err != nil {
		return nil
	}
	result := make(map[string]string, len(keys))
	for _, key := range keys {
		if v := gjson.GetBytes(out, key); v.Exists() && v.String() != "" {
			result["goenv_"+key] = v.String()
		}
	}
	return result
}
