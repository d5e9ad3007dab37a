package bracket

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

type Side string

const (
	WinnersSide    Side = "winners"
	LosersSide     Side = "losers"
	GrandFinalSide Side = "grand_final"
	RoundRobinSide Side = "round_robin"
	GroupSide      Side = "group"
)

// Position identifies a match inside a tournament. It is the map key used
// everywhere inside the engine; Token is only for storage and display.
type Position struct {
	Side  Side
	Group int
	Round int
	Order int
}

func (p Position) Token() string {
	switch p.Side {
	case WinnersSide:
		return fmt.Sprintf("R%dM%d", p.Round, p.Order)
	case LosersSide:
		return fmt.Sprintf("L%dM%d", p.Round, p.Order)
	case GrandFinalSide:
		return "GF"
	case RoundRobinSide:
		return fmt.Sprintf("RR%dM%d", p.Round, p.Order)
	case GroupSide:
		return fmt.Sprintf("G%dR%dM%d", p.Group, p.Round, p.Order)
	}
	return ""
}

func (p Position) String() string {
	return p.Token()
}

func (p Position) IsZero() bool {
	return p == Position{}
}

// ParsePosition is the inverse of Token.
func ParsePosition(token string) (Position, error) {
	var p Position
	var err error

	switch {
	case token == "GF":
		return Position{Side: GrandFinalSide, Round: 1, Order: 1}, nil
	case strings.HasPrefix(token, "RR"):
		p.Side = RoundRobinSide
		_, err = fmt.Sscanf(token, "RR%dM%d", &p.Round, &p.Order)
	case strings.HasPrefix(token, "R"):
		p.Side = WinnersSide
		_, err = fmt.Sscanf(token, "R%dM%d", &p.Round, &p.Order)
	case strings.HasPrefix(token, "L"):
		p.Side = LosersSide
		_, err = fmt.Sscanf(token, "L%dM%d", &p.Round, &p.Order)
	case strings.HasPrefix(token, "G"):
		p.Side = GroupSide
		_, err = fmt.Sscanf(token, "G%dR%dM%d", &p.Group, &p.Round, &p.Order)
	default:
		return Position{}, fmt.Errorf("unknown bracket position %q", token)
	}
	if err != nil {
		return Position{}, fmt.Errorf("invalid bracket position %q: %w", token, err)
	}
	if p.Round < 1 || p.Order < 1 || p.Token() != token {
		return Position{}, fmt.Errorf("invalid bracket position %q", token)
	}
	return p, nil
}

func (p Position) Value() (driver.Value, error) {
	return p.Token(), nil
}

func (p *Position) Scan(src any) error {
	s, err := scanString(src)
	if err != nil {
		return err
	}
	parsed, err := ParsePosition(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p Position) MarshalText() ([]byte, error) {
	return []byte(p.Token()), nil
}

func (p *Position) UnmarshalText(text []byte) error {
	parsed, err := ParsePosition(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Positions is stored as a comma separated token list.
type Positions []Position

func (ps Positions) Tokens() []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Token()
	}
	return out
}

func (ps Positions) Contains(p Position) bool {
	for _, q := range ps {
		if q == p {
			return true
		}
	}
	return false
}

func (ps Positions) Value() (driver.Value, error) {
	return strings.Join(ps.Tokens(), ","), nil
}

func (ps *Positions) Scan(src any) error {
	if src == nil {
		*ps = nil
		return nil
	}
	s, err := scanString(src)
	if err != nil {
		return err
	}
	if s == "" {
		*ps = nil
		return nil
	}
	parts := strings.Split(s, ",")
	out := make(Positions, 0, len(parts))
	for _, part := range parts {
		p, err := ParsePosition(strings.TrimSpace(part))
		if err != nil {
			return err
		}
		out = append(out, p)
	}
	*ps = out
	return nil
}

func scanString(src any) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("cannot scan %T into a bracket position", src)
	}
}
