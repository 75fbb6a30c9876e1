// Package mp4probe inspects MP4 containers: which video codec a source
// carries, its dimensions and duration, and whether the moov box is placed
// for progressive playback.
package mp4probe

import (
	"bytes"
	"fmt"
	"io"

	"github.com/Eyevinn/mp4ff/mp4"
)

// Codec represents a video codec type.
type Codec string

const (
	CodecH264    Codec = "h264"
	CodecH265    Codec = "h265"
	CodecVP9     Codec = "vp9"
	CodecAV1     Codec = "av1"
	CodecUnknown Codec = "unknown"
)

// Report summarizes a probed MP4 container.
type Report struct {
	VideoCodec Codec
	Width      int
	Height     int
	DurationMs int

	// Faststart is true when the moov box precedes mdat, so playback can
	// begin before the file is fully downloaded.
	Faststart bool
}

// Probe inspects MP4 data bytes.
func Probe(data []byte) (Report, error) {
	return ProbeReader(bytes.NewReader(data))
}

// ProbeReader inspects an MP4 container from an io.ReadSeeker.
func ProbeReader(reader io.ReadSeeker) (Report, error) {
	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return Report{}, fmt.Errorf("decode mp4: %w", err)
	}
	return reportFromFile(mp4File)
}

func reportFromFile(f *mp4.File) (Report, error) {
	report := Report{VideoCodec: CodecUnknown}

	moov := f.Moov
	if moov == nil && f.Init != nil {
		moov = f.Init.Moov
	}
	if moov == nil {
		return report, fmt.Errorf("no moov box found")
	}

	if moov.Mvhd != nil && moov.Mvhd.Timescale > 0 {
		report.DurationMs = int(moov.Mvhd.Duration * 1000 / uint64(moov.Mvhd.Timescale))
	}

	report.Faststart = moovPrecedesMdat(f)

	for _, trak := range moov.Traks {
		codec := detectCodecFromTrack(trak)
		if codec == CodecUnknown {
			continue
		}
		report.VideoCodec = codec
		if trak.Tkhd != nil {
			// Tkhd dimensions are fixed-point 16.16.
			report.Width = int(trak.Tkhd.Width >> 16)
			report.Height = int(trak.Tkhd.Height >> 16)
		}
		return report, nil
	}

	return report, fmt.Errorf("no video track found")
}

func moovPrecedesMdat(f *mp4.File) bool {
	moovSeen := false
	for _, child := range f.Children {
		switch child.Type() {
		case "moov":
			moovSeen = true
		case "mdat":
			return moovSeen
		}
	}
	return moovSeen
}

func detectCodecFromTrack(trak *mp4.TrakBox) Codec {
	if trak.Mdia == nil || trak.Mdia.Hdlr == nil {
		return CodecUnknown
	}
	if trak.Mdia.Hdlr.HandlerType != "vide" {
		return CodecUnknown
	}
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return CodecUnknown
	}

	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		switch child.Type() {
		case "avc1", "avc3":
			return CodecH264
		case "hvc1", "hev1":
			return CodecH265
		case "vp09":
			return CodecVP9
		case "av01":
			return CodecAV1
		}
	}
	return CodecUnknown
}
