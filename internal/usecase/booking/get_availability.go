package booking

import (
	"context"
	"time"

	"github.com/chronoline/booking-api/internal/cache"
	domain "github.com/chronoline/booking-api/internal/domain/booking"
	"github.com/chronoline/booking-api/internal/httperr"
	"github.com/chronoline/booking-api/internal/schedule"
	"github.com/chronoline/booking-api/internal/slots"
)

type GetAvailability struct {
	repo  domain.Repository
	gen   *slots.Generator
	cache *cache.SlotCache

	now func() time.Time
}

func NewGetAvailability(
	repo domain.Repository,
	gen *slots.Generator,
	slotCache *cache.SlotCache,
) *GetAvailability {
	return &GetAvailability{
		repo:  repo,
		gen:   gen,
		cache: slotCache,
		now:   time.Now,
	}
}

type AvailabilityInput struct {
	MerchantID uint
	StaffID    uint
	ServiceID  uint

	// Half-open day range in the merchant's location.
	From time.Time
	To   time.Time

	GranularityMin int
}

// Execute returns candidate start times for the picker. Single-day queries
// go through the slot cache; the result is advisory either way.
func (uc *GetAvailability) Execute(
	ctx context.Context,
	in AvailabilityInput,
) ([]time.Time, error) {

	staff, err := uc.repo.GetStaff(ctx, in.MerchantID, in.StaffID)
	if err != nil {
		return nil, notFoundOr(err, "staff_not_found")
	}
	if !staff.Active {
		return nil, httperr.ErrValidation("staff_inactive")
	}

	services, err := uc.repo.GetServices(ctx, in.MerchantID, []uint{in.ServiceID})
	if err != nil {
		return nil, httperr.ErrStore(err)
	}
	if len(services) == 0 {
		return nil, httperr.ErrValidation("service_not_found")
	}
	service := services[0]
	if !service.Active {
		return nil, httperr.ErrValidation("service_inactive")
	}

	// One calendar day, not 24 hours: DST-transition days are 23 or 25h.
	singleDay := in.From.AddDate(0, 0, 1).Equal(in.To)
	dateKey := in.From.Format(schedule.DateLayout)

	if singleDay {
		if cached, ok := uc.cache.Get(ctx, in.StaffID, in.ServiceID, dateKey, in.GranularityMin); ok {
			return cached, nil
		}
	}

	seq, err := uc.gen.Slots(ctx, slots.Input{
		StaffID:        in.StaffID,
		Service:        service,
		From:           in.From,
		To:             in.To,
		GranularityMin: in.GranularityMin,
		Now:            uc.now(),
	})
	if err != nil {
		return nil, err
	}

	starts, err := slots.Collect(seq)
	if err != nil {
		return nil, err
	}

	if singleDay {
		uc.cache.Set(ctx, in.StaffID, in.ServiceID, dateKey, in.GranularityMin, starts)
	}

	return starts, nil
}
