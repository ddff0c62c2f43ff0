package colorspace

import (
	"fmt"
	"strings"
)

// Mode selects the per-pixel transform applied by Transform.
type Mode int

const (
	ModeIdentity Mode = iota
	ModeYCbCr
	ModeHSV
	// ModeLab is accepted but currently passes pixels through unchanged.
	ModeLab
)

var modeNames = map[Mode]string{
	ModeIdentity: "identity",
	ModeYCbCr:    "ycbcr",
	ModeHSV:      "hsv",
	ModeLab:      "lab",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

func ParseMode(in string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(in)) {
	case "identity", "none", "noconversion", "no_conversion":
		return ModeIdentity, nil
	case "ycbcr":
		return ModeYCbCr, nil
	case "hsv":
		return ModeHSV, nil
	case "lab":
		return ModeLab, nil
	default:
		return 0, fmt.Errorf("unsupported conversion mode: %q", in)
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("unsupported conversion mode: %d", int(m))
	}
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
