package state

import (
	"fmt"
	"strconv"
	"strings"
)

func (c Cost) String() string {
	if c == INF {
		return "inf"
	}
	return strconv.FormatUint(uint64(c), 10)
}

func ParseCost(s string) (Cost, error) {
	s = strings.ToLower(strings.Trim(strings.TrimSpace(s), `"'`))
	switch s {
	case "inf", "infinity", "down":
		return INF, nil
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid cost %q: %w", s, err)
	}
	return Cost(v), nil
}

func (c Cost) MarshalYAML() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Cost) UnmarshalYAML(b []byte) error {
	v, err := ParseCost(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func (c Cost) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Cost) UnmarshalText(text []byte) error {
	v, err := ParseCost(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
