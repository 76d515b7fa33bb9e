// Package main provides the system-control plugin.
// It sets the system output volume from a normalized level, via AppleScript on
// macOS and amixer elsewhere.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action string          `json:"action"`
	Level  *float64        `json:"level,omitempty"`
	Config json.RawMessage `json:"config,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type levelData struct {
	Level float64 `json:"level"`
}

// actionHandler handles one action and may return data for the response.
type actionHandler func(req Request) (any, error)

// actionHandlers maps action names to their handler functions.
var actionHandlers = map[string]actionHandler{
	"set-volume":  setVolume,
	"get-volume":  getVolume,
	"volume-mute": volumeMute,
}

var errNoLevel = errors.New("missing level")

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	handler, ok := actionHandlers[req.Action]
	if !ok {
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	data, err := handler(req)
	if err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}

	writeSuccessResponse(data)
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse(data any) {
	resp := Response{
		Success: true,
	}
	if data != nil {
		if raw, err := json.Marshal(data); err == nil {
			resp.Data = raw
		}
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// percent converts a normalized level to an integer percentage in [0, 100].
func percent(level float64) int {
	if math.IsNaN(level) {
		return 0
	}
	return int(math.Round(math.Max(0, math.Min(1, level)) * 100))
}

func setVolume(req Request) (any, error) {
	if req.Level == nil {
		return nil, errNoLevel
	}
	p := percent(*req.Level)

	var err error
	if runtime.GOOS == "darwin" {
		err = runAppleScript(fmt.Sprintf("set volume output volume %d", p))
	} else {
		_, err = run("amixer", "-q", "sset", "Master", fmt.Sprintf("%d%%", p))
	}
	if err != nil {
		return nil, err
	}
	return levelData{Level: float64(p) / 100}, nil
}

func getVolume(Request) (any, error) {
	if runtime.GOOS != "darwin" {
		out, err := run("amixer", "sget", "Master")
		if err != nil {
			return nil, err
		}
		return parseAmixer(out)
	}

	out, err := run("osascript", "-e", "output volume of (get volume settings)")
	if err != nil {
		return nil, err
	}
	p, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return nil, fmt.Errorf("unexpected volume %q", out)
	}
	return levelData{Level: float64(p) / 100}, nil
}

// parseAmixer extracts the first "[NN%]" reading from amixer output.
func parseAmixer(out string) (levelData, error) {
	start := strings.Index(out, "[")
	end := strings.Index(out, "%]")
	if start < 0 || end < start {
		return levelData{}, fmt.Errorf("no volume in amixer output")
	}
	p, err := strconv.Atoi(out[start+1 : end])
	if err != nil {
		return levelData{}, err
	}
	return levelData{Level: float64(p) / 100}, nil
}

// volumeMute toggles the system mute state.
func volumeMute(Request) (any, error) {
	if runtime.GOOS != "darwin" {
		_, err := run("amixer", "-q", "sset", "Master", "toggle")
		return nil, err
	}
	return nil, runAppleScript(`set volume output muted (not (output muted of (get volume settings)))`)
}

// runAppleScript executes an AppleScript command and returns any error.
func runAppleScript(script string) error {
	_, err := run("osascript", "-e", script)
	return err
}

func run(name string, args ...string) (string, error) {
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%w: %s", err, string(output))
	}
	return string(output), nil
}
