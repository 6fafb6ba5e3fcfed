package display

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/envdash/pkg/msgs"
	"github.com/robotalks/envdash/pkg/timesync"
)

func TestDashboardFrame(t *testing.T) {
	d := &Dashboard{
		Clock:     timesync.CalendarTime{Weekday: 2, Month: 3, Day: 4, Year: 2025, Hour: 5, Minute: 6, Second: 7},
		Co2:       812,
		Celsius:   23.5,
		Humidity:  50,
		Connected: true,
		BatteryMv: 5000,
		LastSync:  timesync.Never,
	}
	require.Equal(t, []string{
		"05:06:07",
		"0812ppm [green]",
		"23.5℃",
		"50%",
		"2025",
		"03/04",
		"火",
		"WiFi: OK",
		"BAT : 4350mv",
		"Sync: pending",
	}, d.Frame().Lines)

	d.Connected, d.BatteryMv = false, 100
	d.LastSync = timesync.CalendarTime{Month: 1, Day: 2, Year: 2025, Hour: 3}
	lines := d.Frame().Lines
	require.Equal(t, "WiFi: NG", lines[7])
	require.Equal(t, "BAT : 3300mv", lines[8])
	require.Equal(t, "Sync: 2025/01/02 03:00:00", lines[9])
}

func TestCo2Band(t *testing.T) {
	cases := []struct {
		ppm  uint16
		band Co2Band
	}{
		{0, Co2White},
		{599, Co2White},
		{600, Co2Green},
		{1199, Co2Green},
		{1200, Co2Yellow},
		{1500, Co2Red},
		{1999, Co2Red},
		{2000, Co2Alarm},
	}
	for _, c := range cases {
		require.Equal(t, c.band, Co2BandOf(c.ppm), "%d ppm", c.ppm)
	}
	require.Equal(t, "alarm", Co2Alarm.String())
}

func TestWeekday(t *testing.T) {
	require.Equal(t, "日", Weekday(0))
	require.Equal(t, "土", Weekday(6))
	require.Empty(t, Weekday(7))
	require.Empty(t, Weekday(-1))
}

func TestSyncReport(t *testing.T) {
	rtc := timesync.CalendarTime{Month: 6, Day: 1, Year: 2025, Hour: 12}
	ok := (&SyncReport{Resolved: rtc, RTC: rtc}).Frame()
	require.Equal(t, []string{
		"Succeeded to sync time",
		"getLocalTime:2025/06/01 12:00:00",
		"RTC         :2025/06/01 12:00:00",
	}, ok.Lines)
	failed := (&SyncReport{Err: timesync.ErrTimeout, RTC: rtc}).Frame()
	require.Equal(t, []string{
		"Failed to sync time: timesync: timed out",
		"RTC         :2025/06/01 12:00:00",
	}, failed.Lines)
}

func TestTerminal(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf)
	require.NoError(t, term.Show(&msgs.Frame{Lines: []string{"a", "b"}}))
	require.Zero(t, buf.Len())
	require.NoError(t, term.Flush())
	require.Equal(t, ansiHome+"a\r\nb\r\n", buf.String())

	buf.Reset()
	require.NoError(t, term.Refresh())
	require.Equal(t, ansiClear, buf.String())
}

type recordBroadcaster struct {
	frames []*msgs.Frame
	err    error
}

func (b *recordBroadcaster) Broadcast(msg msgs.Message) error {
	b.frames = append(b.frames, msg.(*msgs.Frame))
	return b.err
}

func TestMirror(t *testing.T) {
	b := &recordBroadcaster{}
	m := NewMirror(b)
	require.NoError(t, m.Refresh())
	require.NoError(t, m.Show(&msgs.Frame{Lines: []string{"x"}}))
	require.NoError(t, m.Show(&msgs.Frame{Lines: []string{"y"}}))
	require.Len(t, b.frames, 2)
	require.True(t, b.frames[0].Refresh)
	require.False(t, b.frames[1].Refresh)
}

func TestMulti(t *testing.T) {
	failure := errors.New("offline")
	ok, bad := &recordBroadcaster{}, &recordBroadcaster{err: failure}
	m := Multi{NewMirror(bad), NewMirror(ok)}
	err := m.Show(Farewell())
	require.ErrorIs(t, err, failure)
	require.Len(t, ok.frames, 1)
	require.Equal(t, []string{"Good bye.."}, ok.frames[0].Lines)
	require.NoError(t, m.Flush())
}
