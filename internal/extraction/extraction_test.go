package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloo-solutions/docqa/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStrategy struct {
	name  string
	text  string
	err   error
	calls int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Extract(_ context.Context, _ []byte) (string, error) {
	s.calls++
	return s.text, s.err
}

var (
	goodText   = "Income statement for 2023. Revenue 1,200 and net income 300. " + strings.Repeat("Details follow. ", 10)
	unrelated  = strings.Repeat("Lorem ipsum dolor sit amet consectetur. ", 13)
	lowQuality = strings.Repeat("@#!~ ", 40) + "revenue"
	ocrRevenue = "Scanned balance sheet: total assets 5,000; revenue 1,000."
	pdfBytes   = []byte("%PDF-1.4 stub")
	ctx        = context.Background()
)

func TestOrchestrator_PrimaryAccepted(t *testing.T) {
	primary := &stubStrategy{name: "primary", text: goodText}
	secondary := &stubStrategy{name: "secondary", text: "other"}
	ocr := &stubStrategy{name: "ocr", text: "scanned"}

	text, err := NewOrchestrator(primary, secondary, WithOCR(ocr)).Extract(ctx, pdfBytes)

	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(goodText), text)
	assert.Equal(t, 0, secondary.calls)
	assert.Equal(t, 0, ocr.calls)
}

func TestOrchestrator_SecondaryWinsOnHigherReadability(t *testing.T) {
	primary := &stubStrategy{name: "primary", text: lowQuality}
	secondary := &stubStrategy{name: "secondary", text: goodText}
	ocr := &stubStrategy{name: "ocr", text: ocrRevenue}

	text, err := NewOrchestrator(primary, secondary, WithOCR(ocr)).Extract(ctx, pdfBytes)

	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(goodText), text)
	assert.Equal(t, 1, secondary.calls)
	assert.Equal(t, 0, ocr.calls)
}

func TestOrchestrator_GarbledTriggersOCR(t *testing.T) {
	// readable but contains none of the expected vocabulary
	primary := &stubStrategy{name: "primary", text: unrelated[:500]}
	secondary := &stubStrategy{name: "secondary", text: ""}
	ocr := &stubStrategy{name: "ocr", text: ocrRevenue}

	q := DefaultQualityChecker().Assess(primary.text)
	require.Greater(t, q.Readability, 0.8)
	require.True(t, q.Garbled)

	text, err := NewOrchestrator(primary, secondary, WithOCR(ocr)).Extract(ctx, pdfBytes)

	require.NoError(t, err)
	assert.Equal(t, 1, ocr.calls)
	assert.Equal(t, ocrRevenue, text)
}

func TestOrchestrator_GarbledOCRWithLowerScoreIsIgnored(t *testing.T) {
	primary := &stubStrategy{name: "primary", text: unrelated}
	secondary := &stubStrategy{name: "secondary"}
	ocr := &stubStrategy{name: "ocr", text: strings.Repeat("~~ ab ", 40)}

	text, err := NewOrchestrator(primary, secondary, WithOCR(ocr)).Extract(ctx, pdfBytes)

	require.NoError(t, err)
	assert.Equal(t, 1, ocr.calls)
	assert.Equal(t, strings.TrimSpace(unrelated), text)
}

func TestOrchestrator_EmptyOCRIsIgnored(t *testing.T) {
	primary := &stubStrategy{name: "primary", text: lowQuality}
	secondary := &stubStrategy{name: "secondary"}
	ocr := &stubStrategy{name: "ocr", text: "   "}

	text, err := NewOrchestrator(primary, secondary, WithOCR(ocr)).Extract(ctx, pdfBytes)

	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(lowQuality), text)
}

func TestOrchestrator_OCRUnavailableIsSkipped(t *testing.T) {
	primary := &stubStrategy{name: "primary", text: unrelated}
	secondary := &stubStrategy{name: "secondary", err: errors.New("exit status 1")}
	ocr := &stubStrategy{name: "ocr", err: ErrStrategyUnavailable}

	text, err := NewOrchestrator(primary, secondary, WithOCR(ocr)).Extract(ctx, pdfBytes)

	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(unrelated), text)
}

func TestOrchestrator_WithoutOCR(t *testing.T) {
	primary := &stubStrategy{name: "primary", text: unrelated}
	secondary := &stubStrategy{name: "secondary"}

	text, err := NewOrchestrator(primary, secondary).Extract(ctx, pdfBytes)

	require.NoError(t, err)
	assert.Equal(t, 1, secondary.calls)
	assert.Equal(t, strings.TrimSpace(unrelated), text)
}

func TestOrchestrator_PrimaryErrorFallsBack(t *testing.T) {
	primary := &stubStrategy{name: "primary", err: errors.New("malformed xref")}
	secondary := &stubStrategy{name: "secondary", text: goodText}

	text, err := NewOrchestrator(primary, secondary).Extract(ctx, pdfBytes)

	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(goodText), text)
}

func TestOrchestrator_UnreadableSecondaryBeatsEmptyPrimary(t *testing.T) {
	primary := &stubStrategy{name: "primary", err: errors.New("malformed xref")}
	secondary := &stubStrategy{name: "secondary", text: "□□□ ◆◆◆"}

	require.Zero(t, DefaultQualityChecker().Assess(secondary.text).Readability)

	text, err := NewOrchestrator(primary, secondary).Extract(ctx, pdfBytes)

	require.NoError(t, err)
	assert.Equal(t, "□□□ ◆◆◆", text)
}

func TestOrchestrator_GarbledOCRBeatsEmptyCandidates(t *testing.T) {
	primary := &stubStrategy{name: "primary", text: " "}
	secondary := &stubStrategy{name: "secondary"}
	ocr := &stubStrategy{name: "ocr", text: "◆◆ ◆◆"}

	text, err := NewOrchestrator(primary, secondary, WithOCR(ocr)).Extract(ctx, pdfBytes)

	require.NoError(t, err)
	assert.Equal(t, 1, ocr.calls)
	assert.Equal(t, "◆◆ ◆◆", text)
}

func TestOrchestrator_AllEmpty(t *testing.T) {
	primary := &stubStrategy{name: "primary", text: "  \n "}
	secondary := &stubStrategy{name: "secondary", err: ErrStrategyUnavailable}
	ocr := &stubStrategy{name: "ocr"}

	text, err := NewOrchestrator(primary, secondary, WithOCR(ocr)).Extract(ctx, pdfBytes)

	assert.Empty(t, text)
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
}

func TestOrchestrator_NormalizesOutput(t *testing.T) {
	primary := &stubStrategy{name: "primary", text: "Revenue\x00 grew\r\nby \xff10%"}

	text, err := NewOrchestrator(primary, nil).Extract(ctx, pdfBytes)

	require.NoError(t, err)
	assert.Equal(t, "Revenue� grew\nby �10%", text)
}

func TestOrchestrator_CustomThreshold(t *testing.T) {
	primary := &stubStrategy{name: "primary", text: "ab !!"}
	secondary := &stubStrategy{name: "secondary"}
	checker := QualityChecker{Threshold: 0.9}

	_, err := NewOrchestrator(primary, secondary, WithQualityChecker(checker)).Extract(ctx, pdfBytes)

	require.NoError(t, err)
	assert.Equal(t, 1, secondary.calls)
}
