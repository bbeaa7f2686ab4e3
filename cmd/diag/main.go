// Command diag is a small CLI for exercising the computation engine
// from the terminal: positions, house cusps, rise/set searches,
// phenomena and eclipse finding, without running the HTTP service.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/astro/skycalc/internal/ephem"
	"github.com/astro/skycalc/internal/houses"
	"github.com/astro/skycalc/internal/position"
	"github.com/astro/skycalc/internal/search"
	"github.com/astro/skycalc/internal/state"
	"github.com/astro/skycalc/internal/timescale"
)

var (
	flagDate     string
	flagJD       float64
	flagLat      float64
	flagLon      float64
	flagAlt      float64
	flagSidereal bool
)

func main() {
	root := &cobra.Command{
		Use:           "diag",
		Short:         "astronomical computation diagnostics",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagDate, "date", "", "moment as RFC 3339 UTC (default now)")
	root.PersistentFlags().Float64Var(&flagJD, "jd", 0, "moment as Julian Day UT (overrides --date)")
	root.PersistentFlags().BoolVar(&flagSidereal, "sidereal", false, "sidereal zodiac (Lahiri ayanamsha)")

	root.AddCommand(positionCmd(), housesCmd(), riseCmd(), phenoCmd(), eclipseCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}

func newState() *state.Context {
	st := state.New()
	if flagSidereal {
		st.SetSidMode(state.SidLahiri, 0, 0)
	}
	return st
}

func momentJD() (float64, error) {
	if flagJD != 0 {
		return flagJD, nil
	}
	t := time.Now().UTC()
	if flagDate != "" {
		var err error
		t, err = time.Parse(time.RFC3339, flagDate)
		if err != nil {
			return 0, fmt.Errorf("bad --date: %w", err)
		}
		t = t.UTC()
	}
	hour := float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600
	return timescale.JulianDay(t.Year(), int(t.Month()), t.Day(), hour, timescale.Gregorian), nil
}

func parseBody(arg string) (ephem.Body, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		return ephem.Body(n), nil
	}
	for b := ephem.Sun; b <= ephem.Vesta; b++ {
		if strings.EqualFold(b.Name(), arg) {
			return b, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ephem.ErrUnknownBody, arg)
}

func fmtJD(jd float64) string {
	y, m, d, hour := timescale.RevJul(jd, timescale.Gregorian)
	hh := int(hour)
	mm := int((hour - float64(hh)) * 60)
	ss := (hour-float64(hh))*3600 - float64(mm)*60
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%04.1f UT", y, m, d, hh, mm, ss)
}

func positionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "position <body>",
		Short: "ecliptic position and speed of a body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := parseBody(args[0])
			if err != nil {
				return err
			}
			jd, err := momentJD()
			if err != nil {
				return err
			}
			st := newState()
			res, err := position.CalcUT(st, jd, body, ephem.FlagSpeed)
			if err != nil {
				return err
			}
			fmt.Printf("%s at JD %.6f (%s)\n", body.Name(), jd, fmtJD(jd))
			fmt.Printf("  lon  %12.6f°   speed %+.6f°/d\n", res.Data[0], res.Data[3])
			fmt.Printf("  lat  %12.6f°   speed %+.6f°/d\n", res.Data[1], res.Data[4])
			fmt.Printf("  dist %12.8f AU  speed %+.8f AU/d\n", res.Data[2], res.Data[5])
			if res.Message != "" {
				fmt.Printf("  %s: %s\n", res.Status, res.Message)
			}
			return nil
		},
	}
}

func housesCmd() *cobra.Command {
	var sysFlag string
	cmd := &cobra.Command{
		Use:   "houses",
		Short: "house cusps and chart angles for an observer",
		RunE: func(cmd *cobra.Command, args []string) error {
			jd, err := momentJD()
			if err != nil {
				return err
			}
			if len(sysFlag) != 1 {
				return fmt.Errorf("bad --system %q: want one letter", sysFlag)
			}
			sys := houses.System(sysFlag[0])
			st := newState()
			res, err := houses.Houses(st, jd, flagLat, flagLon, sys)
			if err != nil {
				return err
			}
			fmt.Printf("%s houses at JD %.6f, lat %.4f lon %.4f\n",
				houses.HouseName(sys), jd, flagLat, flagLon)
			for i := 1; i < len(res.Cusps); i++ {
				fmt.Printf("  cusp %2d  %10.4f°\n", i, res.Cusps[i])
			}
			fmt.Printf("  Asc %.4f°  MC %.4f°  ARMC %.4f°  Vertex %.4f°\n",
				res.Asc, res.MC, res.ARMC, res.Vertex)
			if res.Message != "" {
				fmt.Printf("  %s: %s\n", res.Status, res.Message)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sysFlag, "system", "P", "house system letter")
	addGeoFlags(cmd)
	return cmd
}

func riseCmd() *cobra.Command {
	var eventFlag, starFlag string
	var backward bool
	cmd := &cobra.Command{
		Use:   "rise <body>",
		Short: "next rise, set or transit of a body or fixed star",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var body ephem.Body
			if starFlag == "" {
				if len(args) != 1 {
					return fmt.Errorf("need a body argument or --star")
				}
				var err error
				if body, err = parseBody(args[0]); err != nil {
					return err
				}
			}
			ev, err := parseEvent(eventFlag)
			if err != nil {
				return err
			}
			jd, err := momentJD()
			if err != nil {
				return err
			}
			st := newState()
			geo := state.Observer{LonDeg: flagLon, LatDeg: flagLat, AltM: flagAlt}
			eng := search.New(st, slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
			res, err := eng.RiseTrans(jd, body, starFlag, geo, ev, search.Options{Backward: backward})
			if err != nil {
				return err
			}
			target := starFlag
			if target == "" {
				target = body.Name()
			}
			fmt.Printf("%s %s search from JD %.6f: %s\n", target, ev, jd, res.State)
			if res.State == search.Found {
				fmt.Printf("  JD %.6f  %s\n", res.JD, fmtJD(res.JD))
			}
			fmt.Printf("  steps %d  trace %s\n", res.Steps, res.TraceID)
			return nil
		},
	}
	cmd.Flags().StringVar(&eventFlag, "event", "rise", "rise, set, transit or lower-transit")
	cmd.Flags().StringVar(&starFlag, "star", "", "fixed star name instead of a body")
	cmd.Flags().BoolVar(&backward, "backward", false, "search into the past")
	addGeoFlags(cmd)
	return cmd
}

func phenoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pheno <body>",
		Short: "phase, elongation, apparent size and magnitude",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := parseBody(args[0])
			if err != nil {
				return err
			}
			jd, err := momentJD()
			if err != nil {
				return err
			}
			st := newState()
			eng := search.New(st, slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
			ph, err := eng.PhenoUT(jd, body)
			if err != nil {
				return err
			}
			fmt.Printf("%s at JD %.6f (%s)\n", body.Name(), jd, fmtJD(jd))
			fmt.Printf("  phase angle %8.3f°   illuminated %6.2f%%\n", ph.PhaseAngle, ph.Phase*100)
			fmt.Printf("  elongation  %8.3f°   diameter %8.2f\"\n", ph.Elongation, ph.DiameterSec)
			fmt.Printf("  magnitude   %+.2f\n", ph.Magnitude)
			return nil
		},
	}
}

func eclipseCmd() *cobra.Command {
	var kindFlag string
	var backward bool
	cmd := &cobra.Command{
		Use:   "eclipse",
		Short: "find the next lunar or solar eclipse",
		RunE: func(cmd *cobra.Command, args []string) error {
			jd, err := momentJD()
			if err != nil {
				return err
			}
			st := newState()
			eng := search.New(st, slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
			opts := search.Options{Backward: backward}
			switch kindFlag {
			case "lunar":
				ec, err := eng.LunarEclipseWhen(jd, opts)
				if err != nil {
					return err
				}
				fmt.Printf("lunar eclipse search from JD %.6f: %s\n", jd, ec.State)
				if ec.State == search.Found {
					fmt.Printf("  kind %s  max JD %.6f  %s\n",
						search.EclipseKindName(ec.Kind), ec.Times[0], fmtJD(ec.Times[0]))
					fmt.Printf("  umbral mag %.4f  penumbral mag %.4f\n", ec.UmbralMag, ec.PenumbralMag)
				}
			case "solar":
				ec, err := eng.SolarEclipseWhenGlob(jd, opts)
				if err != nil {
					return err
				}
				fmt.Printf("solar eclipse search from JD %.6f: %s\n", jd, ec.State)
				if ec.State == search.Found {
					fmt.Printf("  kind %s  max JD %.6f  %s\n",
						search.EclipseKindName(ec.Kind), ec.Times[0], fmtJD(ec.Times[0]))
					fmt.Printf("  gamma %+.4f  magnitude %.4f\n", ec.Gamma, ec.MagMax)
				}
			default:
				return fmt.Errorf("bad --kind %q: want lunar or solar", kindFlag)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kindFlag, "kind", "lunar", "lunar or solar")
	cmd.Flags().BoolVar(&backward, "backward", false, "search into the past")
	return cmd
}

func addGeoFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&flagLat, "lat", 0, "geographic latitude, degrees north")
	cmd.Flags().Float64Var(&flagLon, "lon", 0, "geographic longitude, degrees east")
	cmd.Flags().Float64Var(&flagAlt, "alt", 0, "altitude above sea level, meters")
}

func parseEvent(s string) (search.Event, error) {
	switch s {
	case "rise":
		return search.Rise, nil
	case "set":
		return search.Set, nil
	case "transit":
		return search.Transit, nil
	case "lower-transit":
		return search.LowerTransit, nil
	}
	return 0, fmt.Errorf("bad --event %q", s)
}
