package slots

import (
	"errors"
	"fmt"
	"time"

	"github.com/madinabek/flowershop-backend/pkg/config"
	"github.com/madinabek/flowershop-backend/pkg/enums"
	pkgerrors "github.com/madinabek/flowershop-backend/pkg/errors"
)

// ErrNoCatalog signals a misconfigured window catalog, ErrNoWindowsToday the
// ordinary late-evening case where callers should offer the next date instead.
var (
	ErrNoCatalog      = pkgerrors.New(pkgerrors.CodeInternal, "no delivery windows configured")
	ErrNoWindowsToday = pkgerrors.New(pkgerrors.CodeConflict, "no delivery windows remain for today")
)

// DayLabel is the customer-facing name of a candidate date.
type DayLabel string

const (
	DayLabelToday    DayLabel = "today"
	DayLabelTomorrow DayLabel = "tomorrow"
	DayLabelDayAfter DayLabel = "day_after"
)

// Window is a candidate delivery time range. It is never persisted on its own;
// an order freezes a copy into its delivery_from/delivery_to columns.
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Label renders the window as a store-hours range, e.g. "10:00-12:00".
func (w Window) Label() string {
	return fmt.Sprintf("%s-%s", w.From.Format("15:04"), w.To.Format("15:04"))
}

// Day groups the available windows of one candidate date.
type Day struct {
	Date    time.Time `json:"date"`
	Label   DayLabel  `json:"label"`
	Windows []Window  `json:"windows"`
}

// Selection is a normalized delivery-time choice attached to an order
// submission. Exactly one of the two shapes is populated: an explicit window,
// or the clarify-by-phone flag.
type Selection struct {
	ClarifyTime bool
	From        *time.Time
	To          *time.Time
}

// Planner enumerates candidate delivery dates and time windows from the fixed
// store-hours catalog.
type Planner struct {
	cfg config.DeliveryConfig
}

// NewPlanner validates the catalog bounds and builds a planner.
func NewPlanner(cfg config.DeliveryConfig) (*Planner, error) {
	if cfg.WindowLengthHours <= 0 {
		return nil, fmt.Errorf("window length must be positive")
	}
	if cfg.HorizonDays <= 0 {
		return nil, fmt.Errorf("horizon days must be positive")
	}
	if cfg.CourierPrepBuffer < 0 || cfg.PickupPrepBuffer < 0 {
		return nil, fmt.Errorf("prep buffers must not be negative")
	}
	return &Planner{cfg: cfg}, nil
}

// Plan returns the candidate dates with their remaining windows. Today is
// omitted entirely when the prep buffer has consumed all of its windows;
// future dates always carry the full catalog.
func (p *Planner) Plan(now time.Time, method enums.DeliveryMethod) ([]Day, error) {
	if len(p.catalogFor(now)) == 0 {
		return nil, ErrNoCatalog
	}

	days := make([]Day, 0, p.cfg.HorizonDays)
	for offset := 0; offset < p.cfg.HorizonDays; offset++ {
		date := now.AddDate(0, 0, offset)
		windows, err := p.WindowsFor(now, date, method)
		if err != nil {
			if errors.Is(err, ErrNoWindowsToday) {
				continue
			}
			return nil, err
		}
		days = append(days, Day{
			Date:    truncateToDay(date),
			Label:   dayLabel(offset, date),
			Windows: windows,
		})
	}
	return days, nil
}

// WindowsFor returns the available windows of one date. For today the catalog
// is filtered to windows starting after now plus the method's prep buffer;
// an empty remainder is reported as ErrNoWindowsToday so callers can prompt
// for another date instead of showing an empty list.
func (p *Planner) WindowsFor(now, date time.Time, method enums.DeliveryMethod) ([]Window, error) {
	catalog := p.catalogFor(date)
	if len(catalog) == 0 {
		return nil, ErrNoCatalog
	}
	if !sameDay(now, date) {
		return catalog, nil
	}

	cutoff := now.Add(p.prepBuffer(method))
	remaining := make([]Window, 0, len(catalog))
	for _, window := range catalog {
		if window.From.After(cutoff) {
			remaining = append(remaining, window)
		}
	}
	if len(remaining) == 0 {
		return nil, ErrNoWindowsToday
	}
	return remaining, nil
}

// ValidateSelection normalizes the delivery-time choice of an order
// submission. The clarify flag and an explicit window are mutually exclusive;
// the flag wins and clears the window. An explicit window must match the
// catalog grid and, for today, still satisfy the prep buffer.
func (p *Planner) ValidateSelection(now time.Time, method enums.DeliveryMethod, clarify bool, from, to *time.Time) (Selection, error) {
	if clarify {
		return Selection{ClarifyTime: true}, nil
	}
	if from == nil || to == nil {
		return Selection{}, pkgerrors.New(pkgerrors.CodeValidation, "delivery window or clarify_time flag required")
	}

	start, end := *from, *to
	if !end.After(start) {
		return Selection{}, pkgerrors.New(pkgerrors.CodeValidation, "delivery window end must be after start")
	}
	if !p.onCatalogGrid(start, end) {
		return Selection{}, pkgerrors.New(pkgerrors.CodeValidation, "delivery window does not match the store schedule")
	}
	if sameDay(now, start) && !start.After(now.Add(p.prepBuffer(method))) {
		return Selection{}, pkgerrors.New(pkgerrors.CodeConflict, "delivery window is no longer available today")
	}

	return Selection{From: &start, To: &end}, nil
}

func (p *Planner) catalogFor(date time.Time) []Window {
	length := time.Duration(p.cfg.WindowLengthHours) * time.Hour
	day := truncateToDay(date)

	var windows []Window
	for hour := p.cfg.FirstWindowHour; hour+p.cfg.WindowLengthHours <= p.cfg.LastWindowHour; hour += p.cfg.WindowLengthHours {
		from := day.Add(time.Duration(hour) * time.Hour)
		windows = append(windows, Window{From: from, To: from.Add(length)})
	}
	return windows
}

func (p *Planner) onCatalogGrid(start, end time.Time) bool {
	for _, window := range p.catalogFor(start) {
		if window.From.Equal(start) && window.To.Equal(end) {
			return true
		}
	}
	return false
}

func (p *Planner) prepBuffer(method enums.DeliveryMethod) time.Duration {
	if method == enums.DeliveryMethodSelfPickup {
		return p.cfg.PickupPrepBuffer
	}
	return p.cfg.CourierPrepBuffer
}

func dayLabel(offset int, date time.Time) DayLabel {
	switch offset {
	case 0:
		return DayLabelToday
	case 1:
		return DayLabelTomorrow
	case 2:
		return DayLabelDayAfter
	default:
		return DayLabel(date.Format("2006-01-02"))
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
