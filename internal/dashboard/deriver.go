// Package dashboard turns raw device readings and precomputed statistics into
// the payload rendered by the dashboard cards.
package dashboard

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/smartmilk/smart-milk/internal/models"
	"github.com/smartmilk/smart-milk/internal/repo"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultCupSize = 200.0
	dateLayout     = "2006-01-02"
	trendWindow    = 24 * time.Hour
)

// Payload is the JSON body served by /dashboard/status.
type Payload struct {
	UserID                  int        `json:"userId"`
	DeviceID                string     `json:"deviceId"`
	CurrentMilkAmount       float64    `json:"currentMilkAmount"`
	PercentFull             float64    `json:"percentFull"`
	CoffeeCupsLeft          int        `json:"coffeeCupsLeft"`
	CupSize                 float64    `json:"cupSize"`
	AverageDailyConsumption float64    `json:"averageDailyConsumption"`
	ExpectedMilkEndDay      *string    `json:"expectedMilkEndDay"`
	DaysToFinish            *int       `json:"daysToFinish"`
	MilkExpiryDate          *string    `json:"milkExpiryDate"`
	DeltaSinceYesterday     *float64   `json:"deltaSinceYesterday"`
	IsWeightSensorActive    bool       `json:"isWeightSensorActive"`
	BelowAlertThreshold     bool       `json:"belowAlertThreshold"`
	LastUpdated             *time.Time `json:"lastUpdated"`
}

type Deriver struct {
	users   repo.UserRepository
	devices repo.DeviceRepository
	cupSize float64
	now     func() time.Time
}

type Option func(*Deriver)

func WithCupSize(grams float64) Option {
	return func(d *Deriver) {
		if grams > 0 {
			d.cupSize = grams
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(d *Deriver) { d.now = now }
}

func NewDeriver(users repo.UserRepository, devices repo.DeviceRepository, opts ...Option) *Deriver {
	d := &Deriver{
		users:   users,
		devices: devices,
		cupSize: DefaultCupSize,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type readings struct {
	sample    *models.Sample
	stats     *models.DeviceStats
	yesterday *models.Sample
}

// Status builds the dashboard payload for userID. It only reads from the store.
func (d *Deriver) Status(ctx context.Context, userID int) (Payload, error) {
	if userID <= 0 {
		return Payload{}, &ValidationError{Msg: "userId must be a positive integer"}
	}

	user, err := d.users.GetByID(ctx, userID)
	if errors.Is(err, repo.ErrUserNotFound) {
		return Payload{}, &NotFoundError{What: "user", ID: strconv.Itoa(userID)}
	}
	if err != nil {
		return Payload{}, &StoreError{Op: "load user", Err: err}
	}
	if user.DeviceID == "" {
		return Payload{}, &NotFoundError{What: "device for user", ID: strconv.Itoa(userID)}
	}

	now := d.now()
	r, err := d.read(ctx, user.DeviceID, now)
	if err != nil {
		return Payload{}, err
	}
	return d.compose(user, r, now), nil
}

func (d *Deriver) read(ctx context.Context, deviceID string, now time.Time) (readings, error) {
	var r readings
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s, err := d.devices.LatestSample(gctx, deviceID)
		if errors.Is(err, repo.ErrSampleNotFound) {
			return nil
		}
		if err != nil {
			return &StoreError{Op: "latest sample", Err: err}
		}
		r.sample = &s
		return nil
	})
	g.Go(func() error {
		st, err := d.devices.Stats(gctx, deviceID)
		if errors.Is(err, repo.ErrStatsNotFound) {
			return nil
		}
		if err != nil {
			return &StoreError{Op: "device stats", Err: err}
		}
		r.stats = &st
		return nil
	})
	g.Go(func() error {
		s, err := d.devices.SampleAtOrBefore(gctx, deviceID, now.Add(-trendWindow))
		if errors.Is(err, repo.ErrSampleNotFound) {
			return nil
		}
		if err != nil {
			return &StoreError{Op: "previous sample", Err: err}
		}
		r.yesterday = &s
		return nil
	})

	if err := g.Wait(); err != nil {
		return readings{}, err
	}
	return r, nil
}

func (d *Deriver) compose(user models.User, r readings, now time.Time) Payload {
	p := Payload{
		UserID:   user.ID,
		DeviceID: user.DeviceID,
		CupSize:  d.cupSize,
	}

	if r.sample != nil {
		weight := finite(r.sample.Weight)
		p.CurrentMilkAmount = math.Max(weight, 0)
		p.IsWeightSensorActive = weight > 0
		ts := r.sample.Timestamp
		p.LastUpdated = &ts
	}

	if st := r.stats; st != nil {
		p.PercentFull = clamp(deref(st.PercentFull), 0, 100)
		p.AverageDailyConsumption = math.Max(deref(st.AvgDailyConsumption), 0)

		cups := p.CurrentMilkAmount / d.cupSize
		if st.CupsLeft != nil {
			cups = deref(st.CupsLeft)
		}
		p.CoffeeCupsLeft = int(math.Floor(math.Max(cups, 0)))

		if st.ExpectedEmptyDate != nil {
			day := st.ExpectedEmptyDate.Format(dateLayout)
			p.ExpectedMilkEndDay = &day
			days := daysBetween(now, *st.ExpectedEmptyDate)
			p.DaysToFinish = &days
		}
		if st.ExpiryDate != nil {
			day := st.ExpiryDate.Format(dateLayout)
			p.MilkExpiryDate = &day
		}
	}

	if r.sample != nil && r.yesterday != nil {
		delta := p.CurrentMilkAmount - math.Max(finite(r.yesterday.Weight), 0)
		p.DeltaSinceYesterday = &delta
	}

	if user.AlertThreshold != nil && p.IsWeightSensorActive {
		p.BelowAlertThreshold = p.CurrentMilkAmount < float64(*user.AlertThreshold)
	}
	return p
}

// daysBetween counts calendar days from now's date to day, floored at zero.
// Both are compared as dates in day's location.
func daysBetween(now, day time.Time) int {
	loc := day.Location()
	y, m, dd := now.In(loc).Date()
	today := time.Date(y, m, dd, 0, 0, 0, 0, loc)
	y, m, dd = day.Date()
	end := time.Date(y, m, dd, 0, 0, 0, 0, loc)

	days := int(math.Round(end.Sub(today).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return finite(*f)
}

// finite maps NaN and the infinities to 0.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
