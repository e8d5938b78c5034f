// Package halo maps a sampling state to the display parameters of an image's
// colour halo and builds the HTML of the image component.
package halo

import (
	"github.com/jmylchreest/halo/internal/colour"
	"github.com/jmylchreest/halo/internal/palette"
)

// Halo holds the display parameters derived from a sampling state. The zero
// value is a plain image: no halo and no info panel.
type Halo struct {
	// Color is the halo background colour, empty for none.
	Color string `json:"halo_color,omitempty"`

	// ShowInfoPanel reports whether the palette info panel is rendered.
	ShowInfoPanel bool `json:"show_info_panel"`

	// InfoPanelAccent is the info panel border and swatch colour, empty for none.
	InfoPanelAccent string `json:"info_panel_accent,omitempty"`

	// IsDark is carried through from the sample for consumers adapting contrast.
	IsDark bool `json:"is_dark"`
}

// Render derives the halo for s. Only a Sampled state with a well-formed hex
// colour yields a halo; every other state renders as a plain image.
func Render(s palette.State) Halo {
	if s.Phase != palette.Sampled || !colour.IsValidHex(s.Sample.Hex) {
		return Halo{}
	}
	return Halo{
		Color:           s.Sample.Hex,
		ShowInfoPanel:   true,
		InfoPanelAccent: s.Sample.Hex,
		IsDark:          s.Sample.IsDark,
	}
}

// Visible reports whether h draws anything beyond the plain image.
func (h Halo) Visible() bool {
	return h.Color != ""
}
