package ephem

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"strconv"
	"strings"
)

//go:embed stars.txt
var starData []byte

// Star is one fixed-star catalog entry. Coordinates are ICRS/J2000;
// proper motions are mas/yr (pmRA includes the cos-declination factor),
// radial velocity km/s, parallax mas.
type Star struct {
	Name     string
	Nomen    string
	RADeg    float64
	DecDeg   float64
	PMRA     float64
	PMDec    float64
	RV       float64
	Parallax float64
	Mag      float64
}

// CanonicalName is the "name,nomenclature" form the catalog reports back
// for a matched star.
func (s Star) CanonicalName() string {
	return s.Name + "," + s.Nomen
}

var starCatKey = SegKey{Path: "stars.txt", Seg: 0}

func loadStars() ([]Star, error) {
	v, err := segments.Load(starCatKey, parseStarData)
	if err != nil {
		return nil, err
	}
	return v.([]Star), nil
}

func parseStarData() (any, error) {
	var cat []Star
	sc := bufio.NewScanner(bytes.NewReader(starData))
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, ",")
		if len(fields) != 9 {
			return nil, fmt.Errorf("star catalog line %d: want 9 fields, got %d", line, len(fields))
		}
		var s Star
		s.Name = strings.TrimSpace(fields[0])
		s.Nomen = strings.TrimSpace(fields[1])
		nums := make([]float64, 7)
		for i := 0; i < 7; i++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(fields[i+2]), 64)
			if err != nil {
				return nil, fmt.Errorf("star catalog line %d field %d: %w", line, i+3, err)
			}
			nums[i] = v
		}
		s.RADeg, s.DecDeg = nums[0], nums[1]
		s.PMRA, s.PMDec = nums[2], nums[3]
		s.RV, s.Parallax, s.Mag = nums[4], nums[5], nums[6]
		cat = append(cat, s)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return cat, nil
}

// SearchStar resolves a star designation to a catalog entry. The query is
// matched case-insensitively: an exact traditional name or nomenclature
// wins first, then a prefix of the traditional name. A query of the form
// "name,nomen" must match the nomenclature part exactly.
func SearchStar(query string) (Star, error) {
	cat, err := loadStars()
	if err != nil {
		return Star{}, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Star{}, fmt.Errorf("%w: empty name", ErrStarNotFound)
	}

	if name, nomen, ok := strings.Cut(q, ","); ok {
		nomen = strings.TrimSpace(nomen)
		name = strings.TrimSpace(name)
		for _, s := range cat {
			if strings.ToLower(s.Nomen) == nomen &&
				(name == "" || strings.HasPrefix(strings.ToLower(s.Name), name)) {
				return s, nil
			}
		}
		return Star{}, fmt.Errorf("%w: %q", ErrStarNotFound, query)
	}

	for _, s := range cat {
		if strings.ToLower(s.Name) == q || strings.ToLower(s.Nomen) == q {
			return s, nil
		}
	}
	for _, s := range cat {
		if strings.HasPrefix(strings.ToLower(s.Name), q) {
			return s, nil
		}
	}
	return Star{}, fmt.Errorf("%w: %q", ErrStarNotFound, query)
}
