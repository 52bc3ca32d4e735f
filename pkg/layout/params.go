package layout

import (
	"github.com/matzehuels/annoview/pkg/errors"
	"github.com/matzehuels/annoview/pkg/fonts"
)

// Params holds the visual constants of a layout pass. All lengths are in
// pixels.
type Params struct {
	CanvasWidth float64 `json:"canvas_width" toml:"canvas_width" yaml:"canvas_width"`
	MarginX     float64 `json:"margin_x" toml:"margin_x" yaml:"margin_x"`
	MarginY     float64 `json:"margin_y" toml:"margin_y" yaml:"margin_y"`

	// BoxSpacing separates stacked reservation lines.
	BoxSpacing     float64 `json:"box_spacing" toml:"box_spacing" yaml:"box_spacing"`
	BoxTextMarginX float64 `json:"box_text_margin_x" toml:"box_text_margin_x" yaml:"box_text_margin_x"`
	BoxTextMarginY float64 `json:"box_text_margin_y" toml:"box_text_margin_y" yaml:"box_text_margin_y"`
	CurlyHeight    float64 `json:"curly_height" toml:"curly_height" yaml:"curly_height"`

	// ArcStartHeight is the floor of every height slot.
	ArcStartHeight       float64 `json:"arc_start_height" toml:"arc_start_height" yaml:"arc_start_height"`
	ArcSpacing           float64 `json:"arc_spacing" toml:"arc_spacing" yaml:"arc_spacing"`
	ArcSlant             float64 `json:"arc_slant" toml:"arc_slant" yaml:"arc_slant"`
	ArcHorizontalSpacing float64 `json:"arc_horizontal_spacing" toml:"arc_horizontal_spacing" yaml:"arc_horizontal_spacing"`
	ArcLabelPadding      float64 `json:"arc_label_padding" toml:"arc_label_padding" yaml:"arc_label_padding"`

	// SentNumMargin is the gutter reserved for sentence numbers.
	SentNumMargin float64 `json:"sent_num_margin" toml:"sent_num_margin" yaml:"sent_num_margin"`
	RowPadding    float64 `json:"row_padding" toml:"row_padding" yaml:"row_padding"`
	RowSpacing    float64 `json:"row_spacing" toml:"row_spacing" yaml:"row_spacing"`

	TextFont fonts.Font `json:"text_font" toml:"text_font" yaml:"text_font"`
	SpanFont fonts.Font `json:"span_font" toml:"span_font" yaml:"span_font"`
	ArcFont  fonts.Font `json:"arc_font" toml:"arc_font" yaml:"arc_font"`
}

// DefaultParams returns the stock visual constants.
func DefaultParams() Params {
	return Params{
		CanvasWidth:          800,
		MarginX:              2,
		MarginY:              1,
		BoxSpacing:           1,
		BoxTextMarginX:       2,
		BoxTextMarginY:       1.5,
		CurlyHeight:          4,
		ArcStartHeight:       19,
		ArcSpacing:           9,
		ArcSlant:             15,
		ArcHorizontalSpacing: 10,
		ArcLabelPadding:      2,
		SentNumMargin:        20,
		RowPadding:           2,
		RowSpacing:           4,
		TextFont:             fonts.Font{Family: fonts.DefaultFamily, Size: 13},
		SpanFont:             fonts.Font{Family: fonts.DefaultFamily, Size: 10},
		ArcFont:              fonts.Font{Family: fonts.DefaultFamily, Size: 9},
	}
}

// Validate rejects parameters no layout can be computed with.
func (p Params) Validate() error {
	if p.CanvasWidth <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "canvas width must be positive, got %g", p.CanvasWidth)
	}
	for _, f := range []struct {
		name string
		font fonts.Font
	}{{"text", p.TextFont}, {"span", p.SpanFont}, {"arc", p.ArcFont}} {
		if f.font.Size <= 0 {
			return errors.New(errors.ErrCodeInvalidInput, "%s font size must be positive, got %g", f.name, f.font.Size)
		}
	}
	if p.ArcSpacing < 0 || p.BoxSpacing < 0 || p.CurlyHeight < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "spacing constants must not be negative")
	}
	return nil
}
