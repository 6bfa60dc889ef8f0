package routes

import (
	"time"

	"spots-clone-server/apperr"
	"spots-clone-server/services"
	"spots-clone-server/utils"

	"github.com/kataras/iris/v12"
)

// Booking endpoints delegate every rule to the BookingService; handlers
// only parse input and translate typed errors into status codes.

var bookings *services.BookingService

// UseBookingService wires the service instance the handlers delegate to.
func UseBookingService(s *services.BookingService) {
	bookings = s
}

type BookingInput struct {
	StartDate string `json:"startDate" validate:"required"`
	EndDate   string `json:"endDate" validate:"required"`
}

func (i BookingInput) dates() (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", i.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validation("Start date must be a valid date (YYYY-MM-DD).")
	}
	end, err := time.Parse("2006-01-02", i.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validation("End date must be a valid date (YYYY-MM-DD).")
	}
	return start, end, nil
}

// GetCurrentUserBookings returns the authenticated user's bookings with a
// spot summary.
func GetCurrentUserBookings(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	results, err := bookings.ListForBooker(ctx.Request().Context(), userID)
	if err != nil {
		utils.HandleServiceError(err, ctx)
		return
	}

	ctx.JSON(iris.Map{"bookings": results})
}

// GetSpotBookings lists a spot's bookings. The spot owner sees full
// records; everyone else only the booked date ranges.
func GetSpotBookings(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	spotID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid spot ID", ctx)
		return
	}

	results, full, svcErr := bookings.ListForSpot(ctx.Request().Context(), spotID, userID)
	if svcErr != nil {
		utils.HandleServiceError(svcErr, ctx)
		return
	}

	if full {
		ctx.JSON(iris.Map{"bookings": results})
		return
	}

	limited := make([]iris.Map, 0, len(results))
	for _, b := range results {
		limited = append(limited, iris.Map{
			"spotID":    b.SpotID,
			"startDate": b.StartDate.Format("2006-01-02"),
			"endDate":   b.EndDate.Format("2006-01-02"),
		})
	}
	ctx.JSON(iris.Map{"bookings": limited})
}

func CreateBooking(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	spotID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid spot ID", ctx)
		return
	}

	var input BookingInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	start, end, datesErr := input.dates()
	if datesErr != nil {
		utils.HandleServiceError(datesErr, ctx)
		return
	}

	booking, svcErr := bookings.Create(ctx.Request().Context(), spotID, userID, start, end)
	if svcErr != nil {
		utils.HandleServiceError(svcErr, ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(booking)
}

func UpdateBooking(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	bookingID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid booking ID", ctx)
		return
	}

	var input BookingInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	start, end, datesErr := input.dates()
	if datesErr != nil {
		utils.HandleServiceError(datesErr, ctx)
		return
	}

	booking, svcErr := bookings.Update(ctx.Request().Context(), bookingID, userID, start, end)
	if svcErr != nil {
		utils.HandleServiceError(svcErr, ctx)
		return
	}

	ctx.JSON(booking)
}

func DeleteBooking(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	bookingID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid booking ID", ctx)
		return
	}

	if svcErr := bookings.Cancel(ctx.Request().Context(), bookingID, userID); svcErr != nil {
		utils.HandleServiceError(svcErr, ctx)
		return
	}

	ctx.JSON(iris.Map{"message": "Successfully deleted booking"})
}
