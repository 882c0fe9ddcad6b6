package compress

import (
	"crypto/subtle"
	"fmt"
	"math"

	"go.uber.org/zap"

	sperrors "github.com/iamNilotpal/capsule/pkg/errors"
	"github.com/iamNilotpal/capsule/pkg/options"
)

const (
	// entropySampleSize is the number of leading bytes sampled for the
	// Shannon entropy estimate; inputs shorter than this are never
	// entropy-gated (there isn't enough signal).
	entropySampleSize = 1024

	// entropyThreshold is the bits/byte value at or above which
	// compression is skipped outright as wasted work.
	entropyThreshold = 7.5

	// ineffectiveRatioNumerator/Denominator express "compressed size must
	// be below 95% of the original" as an integer ratio, avoiding
	// float-threshold surprises on the boundary.
	ineffectiveRatioNumerator   = 95
	ineffectiveRatioDenominator = 100
)

// SkipReasonKind distinguishes why a segment was left uncompressed.
type SkipReasonKind string

const (
	SkipReasonEntropy      SkipReasonKind = "entropy"
	SkipReasonIneffective  SkipReasonKind = "ineffective"
)

// SkipReason carries the quantified reason compression was skipped or
// reverted: always a successful result with a reason tag attached, never
// an error in its own right.
type SkipReason struct {
	Kind  SkipReasonKind
	Value float64 // bits/byte for Entropy, original/compressed ratio for Ineffective
}

// Result summarizes what happened during CompressSegment: whether the
// bytes were actually compressed, which algorithm tag to persist in the
// segment record, and why compression was skipped if it was.
type Result struct {
	OriginalSize   int
	CompressedSize int
	Compressed     bool
	Algorithm      string // "identity" | "lz4:<level>" | "zstd:<level>"
	Reason         *SkipReason
}

// Ratio returns originalSize/compressedSize, or 1.0 if compressedSize is 0.
func (r Result) Ratio() float64 {
	if r.CompressedSize == 0 {
		return 1.0
	}
	return float64(r.OriginalSize) / float64(r.CompressedSize)
}

// Engine selects and runs codecs according to a Policy's compression
// settings, with entropy gating, ineffectiveness fallback, and a mandatory
// round-trip integrity check on every successful compression.
type Engine struct {
	log *zap.SugaredLogger
}

// New builds a compression Engine.
func New(log *zap.SugaredLogger) *Engine {
	return &Engine{log: log}
}

// estimateEntropy computes the Shannon entropy, in bits/byte, of data.
// Returns 0 for empty input (defined as minimum entropy, matching the
// "constant" case rather than being undefined).
func estimateEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}

	var freq [256]int
	for _, b := range data {
		freq[b]++
	}

	total := float64(len(data))
	entropy := 0.0
	for _, count := range freq {
		if count == 0 {
			continue
		}
		p := float64(count) / total
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// entropySkipReason reports whether data's entropy is high enough that
// compression should be skipped without even trying the codec.
func entropySkipReason(data []byte) *SkipReason {
	if len(data) < entropySampleSize {
		return nil
	}
	entropy := estimateEntropy(data[:entropySampleSize])
	if entropy >= entropyThreshold {
		return &SkipReason{Kind: SkipReasonEntropy, Value: entropy}
	}
	return nil
}

func codecFor(c options.Compression) (Codec, string) {
	switch c.Kind {
	case options.CompressionLZ4:
		return newLZ4Codec(c.Level), fmt.Sprintf("lz4:%d", c.Level)
	case options.CompressionZstd:
		return newZstdCodec(c.Level), fmt.Sprintf("zstd:%d", c.Level)
	default:
		return identityCodec{}, "identity"
	}
}

// CompressSegment runs the adaptive-gated compression pipeline for one
// chunk: policy check, entropy gate, codec run, ineffectiveness fallback,
// and a mandatory re-decompress-and-compare integrity check on any bytes
// that are actually handed off as "compressed". Returns the payload to
// store (identical to data when compression was skipped or reverted) and a
// Result describing what happened.
func (e *Engine) CompressSegment(data []byte, policy options.Compression) ([]byte, Result, error) {
	originalSize := len(data)

	if policy.Kind == options.CompressionNone {
		return data, Result{
			OriginalSize:   originalSize,
			CompressedSize: originalSize,
			Compressed:     false,
			Algorithm:      "identity",
		}, nil
	}

	if reason := entropySkipReason(data); reason != nil {
		e.log.Debugw("skipping compression due to high entropy",
			"entropy_bits_per_byte", reason.Value, "size", originalSize)
		return data, Result{
			OriginalSize:   originalSize,
			CompressedSize: originalSize,
			Compressed:     false,
			Algorithm:      "identity",
			Reason:         reason,
		}, nil
	}

	codec, algoTag := codecFor(policy)
	compressed, err := codec.Compress(data)
	if err != nil {
		return nil, Result{}, sperrors.NewCapsuleError(err, sperrors.ErrorCodeIO, "compression backend failed").
			WithDetail("algorithm", algoTag)
	}

	compressedSize := len(compressed)
	if compressedSize*ineffectiveRatioDenominator >= originalSize*ineffectiveRatioNumerator {
		ratio := 1.0
		if compressedSize > 0 {
			ratio = float64(originalSize) / float64(compressedSize)
		}
		e.log.Debugw("compression ineffective; reverting to original bytes",
			"algorithm", algoTag, "ratio", ratio)
		return data, Result{
			OriginalSize:   originalSize,
			CompressedSize: originalSize,
			Compressed:     false,
			Algorithm:      "identity",
			Reason:         &SkipReason{Kind: SkipReasonIneffective, Value: ratio},
		}, nil
	}

	// Mandatory integrity check: re-decompress and constant-time compare
	// against the original before ever trusting the compressed bytes.
	roundTrip, err := codec.Decompress(compressed)
	if err != nil {
		return nil, Result{}, sperrors.NewCapsuleError(err, sperrors.ErrorCodeIntegrityFailure,
			"compression round-trip decode failed").WithDetail("algorithm", algoTag)
	}
	if len(roundTrip) != len(data) || subtle.ConstantTimeCompare(roundTrip, data) != 1 {
		return nil, Result{}, sperrors.NewCapsuleError(nil, sperrors.ErrorCodeIntegrityFailure,
			"compression round-trip byte mismatch").WithDetail("algorithm", algoTag)
	}

	e.log.Debugw("segment compressed", "algorithm", algoTag, "compressed_len", compressedSize)
	return compressed, Result{
		OriginalSize:   originalSize,
		CompressedSize: compressedSize,
		Compressed:     true,
		Algorithm:      algoTag,
	}, nil
}

// DecompressSegment inverts CompressSegment given the algorithm tag that was
// persisted in the segment record. "identity" (and any unrecognized tag,
// matching legacy segments written before adaptive gating existed) is a
// pass-through.
func (e *Engine) DecompressSegment(data []byte, algoTag string) ([]byte, error) {
	codec, kind := parseAlgoTag(algoTag)
	out, err := codec.Decompress(data)
	if err != nil {
		e.log.Warnw("decompress failed, falling back to identity",
			"algorithm", algoTag, "kind", kind, "error", err)
		return data, nil
	}
	return out, nil
}

func parseAlgoTag(tag string) (Codec, string) {
	var level int
	switch {
	case len(tag) >= 4 && tag[:4] == "lz4:":
		fmt.Sscanf(tag[4:], "%d", &level)
		return newLZ4Codec(level), "lz4"
	case len(tag) >= 5 && tag[:5] == "zstd:":
		fmt.Sscanf(tag[5:], "%d", &level)
		return newZstdCodec(level), "zstd"
	default:
		return identityCodec{}, "identity"
	}
}
