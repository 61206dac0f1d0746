package booking

import (
	"context"
	"time"

	domain "github.com/chronoline/booking-api/internal/domain/booking"
	"github.com/chronoline/booking-api/internal/dto"
	"github.com/chronoline/booking-api/internal/timezone"
)

type ListBookings struct {
	repo domain.Repository
}

func NewListBookings(repo domain.Repository) *ListBookings {
	return &ListBookings{repo: repo}
}

func (uc *ListBookings) ByDate(
	ctx context.Context,
	merchantID uint,
	staffID uint,
	date time.Time,
) ([]dto.BookingListDTO, error) {

	merchant, err := uc.repo.GetMerchantByID(ctx, merchantID)
	if err != nil {
		return nil, err
	}

	loc := timezone.Location(merchant.Timezone)
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)

	return uc.list(ctx, staffID, start, end)
}

func (uc *ListBookings) ByMonth(
	ctx context.Context,
	merchantID uint,
	staffID uint,
	year int,
	month time.Month,
) ([]dto.BookingListDTO, error) {

	merchant, err := uc.repo.GetMerchantByID(ctx, merchantID)
	if err != nil {
		return nil, err
	}

	loc := timezone.Location(merchant.Timezone)
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0)

	return uc.list(ctx, staffID, start, end)
}

func (uc *ListBookings) list(
	ctx context.Context,
	staffID uint,
	start time.Time,
	end time.Time,
) ([]dto.BookingListDTO, error) {

	bookings, err := uc.repo.ListBookingsForPeriod(ctx, staffID, start, end)
	if err != nil {
		return nil, err
	}

	out := make([]dto.BookingListDTO, 0, len(bookings))
	for _, b := range bookings {
		names := make([]string, 0, len(b.Services))
		for _, s := range b.Services {
			names = append(names, s.Name)
		}

		out = append(out, dto.BookingListDTO{
			ID:           b.ID,
			StartTime:    b.StartTime,
			EndTime:      b.EndTime,
			Status:       b.Status,
			IsOverride:   b.IsOverride,
			CustomerName: b.Customer.Name,
			ServiceNames: names,
		})
	}

	return out, nil
}
