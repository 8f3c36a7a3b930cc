package tui

import (
	"fmt"
	"strings"

	"sailtimer/pkg/timer"
	"sailtimer/pkg/vmg"
)

const helpText = "[yellow]Space[white] Start/Stop  [yellow]R[white] Reset  [yellow]+/-[white] Minute  [yellow]S[white] Sync  " +
	"[yellow]L[white] Leeward  [yellow]W[white] Windward  [yellow]X[white] Clear marks  [yellow]Q[white] Quit"

func renderTimer(s timer.Snapshot) string {
	color := "white"
	label := "READY"
	switch {
	case s.Urgent:
		color = "red"
		label = "STARTING"
	case s.Phase == timer.PhaseCountingDown:
		color = "green"
		label = "COUNTDOWN"
	case s.Phase == timer.PhaseElapsed:
		color = "aqua"
		label = "RACING"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n[%s::b]%s[-::-]\n\n", color, s.Display)
	fmt.Fprintf(&b, "[gray]%s[-]", label)
	if s.Phase == timer.PhaseElapsed {
		fmt.Fprintf(&b, "\n[gray]since start[-]")
	}
	return b.String()
}

func renderSail(d vmg.SailData) string {
	var b strings.Builder
	if d.Error != "" {
		fmt.Fprintf(&b, "[red]GPS: %s[-]\n", d.Error)
	}
	if !d.HasFix {
		b.WriteString("[gray]Waiting for GPS fix...[-]")
		return b.String()
	}

	if d.GPSStatus == vmg.GPSActive {
		b.WriteString(" [green]GPS ACTIVE[-]\n")
	} else {
		b.WriteString(" [yellow]GPS LIMITED[-]\n")
	}

	fmt.Fprintf(&b, " Speed    %s kn\n", optional(d.SpeedKnots, "%.1f"))
	fmt.Fprintf(&b, "          %s km/h  %s m/s\n", optional(d.SpeedKmh, "%.1f"), optional(d.SpeedMs, "%.2f"))
	if d.HeadingHint != "" {
		fmt.Fprintf(&b, " Heading  [gray]%s[-]\n", d.HeadingHint)
	} else {
		fmt.Fprintf(&b, " Heading  %s° %s\n", optional(d.Heading, "%.0f"), d.Compass)
	}
	fmt.Fprintf(&b, " Accuracy ±%.0f m\n", d.Accuracy)
	fmt.Fprintf(&b, " Position %.5f, %.5f\n", d.Latitude, d.Longitude)
	fmt.Fprintf(&b, " Demo VMG %.1f kn", d.DemoVMG)
	return b.String()
}

func renderVMG(r vmg.Result, ok bool, m vmg.Marks) string {
	var b strings.Builder
	fmt.Fprintf(&b, " Leeward  %s\n", markLine(m.Leeward))
	fmt.Fprintf(&b, " Windward %s\n\n", markLine(m.Windward))
	if !ok {
		b.WriteString("[gray]Set a leeward mark to start[-]")
		return b.String()
	}

	fmt.Fprintf(&b, " Leg      [yellow]%s[-]\n", strings.ToUpper(string(r.CurrentLeg)))
	fmt.Fprintf(&b, " Sailing  %.1f kn @ %.0f°\n", r.CurrentSpeedKnots, r.CurrentHeadingDegrees)
	if m.Windward != nil {
		fmt.Fprintf(&b, " To WW    %s kn  %.0f°  %.2f nm\n", signed(r.VMGToWindward), r.BearingToWindward, r.DistanceToWindwardNm)
	}
	if m.Leeward != nil {
		fmt.Fprintf(&b, " To LW    %s kn  %.0f°  %.2f nm", signed(r.VMGToLeeward), r.BearingToLeeward, r.DistanceToLeewardNm)
	}
	return b.String()
}

func markLine(wp *vmg.Waypoint) string {
	if wp == nil {
		return "[gray]not set[-]"
	}
	return fmt.Sprintf("%.5f, %.5f", wp.Lat, wp.Lon)
}

// signed colors a VMG green when it closes on the mark and red when it opens.
func signed(v float64) string {
	if v < 0 {
		return fmt.Sprintf("[red]%.1f[-]", v)
	}
	return fmt.Sprintf("[green]+%.1f[-]", v)
}

func optional(v *float64, format string) string {
	if v == nil {
		return "--"
	}
	return fmt.Sprintf(format, *v)
}
