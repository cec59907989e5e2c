package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"uploadcheck/internal/language"
	"uploadcheck/internal/services"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index          int               `json:"index"`
	CodecName      string            `json:"codec_name"`
	CodecType      string            `json:"codec_type"`
	CodecTag       string            `json:"codec_tag_string"`
	Profile        string            `json:"profile"`
	Width          int               `json:"width"`
	Height         int               `json:"height"`
	ColorTransfer  string            `json:"color_transfer"`
	ColorPrimaries string            `json:"color_primaries"`
	Tags           map[string]string `json:"tags"`
	SideDataList   []SideData        `json:"side_data_list"`
}

// SideData is one entry of a stream's side data list.
type SideData struct {
	Type string `json:"side_data_type"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-print_format", "json", "-show_streams", "-show_format", "--", path)
	output, err := cmd.Output()
	if err != nil {
		detail := ""
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			detail = strings.TrimSpace(string(exitErr.Stderr))
		}
		return Result{}, services.Wrap(services.ErrExternalTool, "inspect", "ffprobe", detail, err)
	}
	return Parse(output)
}

// Parse decodes raw ffprobe JSON.
func Parse(data []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

func (r Result) streamsOf(kind string) []Stream {
	var out []Stream
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, kind) {
			out = append(out, stream)
		}
	}
	return out
}

// VideoStreamCount returns the number of video streams discovered.
func (r Result) VideoStreamCount() int { return len(r.streamsOf("video")) }

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int { return len(r.streamsOf("audio")) }

// AudioLanguages returns the distinct tagged audio languages as ISO 639-1
// codes where possible. Untagged and "und" streams are ignored.
func (r Result) AudioLanguages() []string {
	return languagesOf(r.streamsOf("audio"))
}

// SubtitleLanguages returns the distinct tagged subtitle languages.
func (r Result) SubtitleLanguages() []string {
	return languagesOf(r.streamsOf("subtitle"))
}

func languagesOf(streams []Stream) []string {
	codes := make([]string, 0, len(streams))
	for _, stream := range streams {
		code := language.ExtractFromTags(stream.Tags)
		if code == "" || code == "und" {
			continue
		}
		codes = append(codes, code)
	}
	return language.NormalizeList(codes)
}

// DurationSeconds returns the container duration in seconds, 0 when absent,
// or NaN when unparsable.
func (r Result) DurationSeconds() float64 {
	return parseFloat(r.Format.Duration)
}

// RuntimeMinutes returns the container duration rounded to whole minutes.
func (r Result) RuntimeMinutes() int {
	seconds := r.DurationSeconds()
	if math.IsNaN(seconds) || seconds <= 0 {
		return 0
	}
	return int(math.Round(seconds / 60))
}

// HDRBlob joins the video stream fields that carry dynamic range markers:
// color transfer, side data types, codec tags and profiles, and stream titles.
func (r Result) HDRBlob() string {
	var parts []string
	add := func(value string) {
		if value = strings.TrimSpace(value); value != "" {
			parts = append(parts, value)
		}
	}
	for _, stream := range r.streamsOf("video") {
		add(stream.ColorTransfer)
		add(stream.CodecTag)
		add(stream.Profile)
		for _, side := range stream.SideDataList {
			add(side.Type)
		}
		add(stream.Tags["title"])
	}
	return strings.Join(parts, " / ")
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
