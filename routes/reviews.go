package routes

import (
	"errors"

	"spots-clone-server/models"
	"spots-clone-server/storage"
	"spots-clone-server/utils"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
)

type CreateReviewInput struct {
	Stars int    `json:"stars" validate:"required,min=1,max=5"`
	Body  string `json:"body" validate:"required,max=1000"`
}

// ListSpotReviews returns a spot's reviews together with the aggregate
// rating.
func ListSpotReviews(ctx iris.Context) {
	spotID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid spot ID", ctx)
		return
	}

	var spot models.Spot
	if err := storage.DB.First(&spot, spotID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Spot couldn't be found.", ctx)
		return
	}

	var reviews []models.Review
	if err := storage.DB.
		Preload("User").
		Preload("Images").
		Where("spot_id = ?", spotID).
		Order("created_at DESC").
		Find(&reviews).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var totalStars float64
	for _, review := range reviews {
		totalStars += float64(review.Stars)
	}
	avgRating := 0.0
	if len(reviews) > 0 {
		avgRating = totalStars / float64(len(reviews))
	}

	ctx.JSON(iris.Map{
		"reviews":   reviews,
		"avgRating": avgRating,
	})
}

func CreateSpotReview(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	spotID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid spot ID", ctx)
		return
	}

	var input CreateReviewInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var spot models.Spot
	if err := storage.DB.First(&spot, spotID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Spot couldn't be found.", ctx)
		return
	}
	if spot.OwnerID == userID {
		utils.CreateError(iris.StatusForbidden, "Forbidden", "You cannot review your own spot.", ctx)
		return
	}

	var existing models.Review
	err = storage.DB.Where("spot_id = ? AND user_id = ?", spotID, userID).First(&existing).Error
	if err == nil {
		utils.CreateError(iris.StatusConflict, "Conflict", "You already reviewed this spot.", ctx)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.CreateInternalServerError(ctx)
		return
	}

	review := models.Review{
		UserID: userID,
		SpotID: spotID,
		Stars:  input.Stars,
		Body:   input.Body,
	}
	if err := storage.DB.Create(&review).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(review)
}

func DeleteReview(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	reviewID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid review ID", ctx)
		return
	}

	var review models.Review
	if err := storage.DB.First(&review, reviewID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Review couldn't be found.", ctx)
		return
	}
	if review.UserID != userID {
		utils.CreateError(iris.StatusForbidden, "Forbidden", "Forbidden", ctx)
		return
	}

	err = storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("review_id = ?", review.ID).Delete(&models.ReviewImage{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&review).Error
	})
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"message": "Successfully deleted"})
}

type AddReviewImageInput struct {
	URL string `json:"url" validate:"required,url"`
}

func AddReviewImage(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	reviewID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid review ID", ctx)
		return
	}

	var input AddReviewImageInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var review models.Review
	if err := storage.DB.First(&review, reviewID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Review couldn't be found.", ctx)
		return
	}
	if review.UserID != userID {
		utils.CreateError(iris.StatusForbidden, "Forbidden", "Forbidden", ctx)
		return
	}

	image := models.ReviewImage{ReviewID: review.ID, URL: input.URL}
	if err := storage.DB.Create(&image).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(image)
}

func DeleteReviewImage(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	imageID := ctx.Params().Get("imageID")

	var image models.ReviewImage
	if err := storage.DB.First(&image, imageID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Review image couldn't be found.", ctx)
		return
	}

	var review models.Review
	if err := storage.DB.First(&review, image.ReviewID).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if review.UserID != userID {
		utils.CreateError(iris.StatusForbidden, "Forbidden", "Forbidden", ctx)
		return
	}

	storage.DB.Unscoped().Delete(&image)
	ctx.JSON(iris.Map{"message": "Successfully deleted"})
}
