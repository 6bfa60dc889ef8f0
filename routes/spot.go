package routes

import (
	"spots-clone-server/models"
	"spots-clone-server/storage"
	"spots-clone-server/utils"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
)

type CreateSpotInput struct {
	Name         string   `json:"name" validate:"required,max=256"`
	Description  string   `json:"description" validate:"required"`
	AddressLine1 string   `json:"addressLine1" validate:"required,max=512"`
	AddressLine2 string   `json:"addressLine2" validate:"max=512"`
	City         string   `json:"city" validate:"required,max=256"`
	State        string   `json:"state" validate:"max=256"`
	Zip          string   `json:"zip" validate:"max=32"`
	Country      string   `json:"country" validate:"required,max=256"`
	Lat          float32  `json:"lat" validate:"min=-90,max=90"`
	Lng          float32  `json:"lng" validate:"min=-180,max=180"`
	NightlyPrice float32  `json:"nightlyPrice" validate:"required,gt=0"`
	Currency     string   `json:"currency" validate:"max=8"`
	Images       []string `json:"images"`
}

func CreateSpot(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var input CreateSpotInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	spot := models.Spot{
		OwnerID:      userID,
		Name:         input.Name,
		Description:  input.Description,
		AddressLine1: input.AddressLine1,
		AddressLine2: input.AddressLine2,
		City:         input.City,
		State:        input.State,
		Zip:          input.Zip,
		Country:      input.Country,
		Lat:          input.Lat,
		Lng:          input.Lng,
		NightlyPrice: input.NightlyPrice,
		Currency:     input.Currency,
	}
	for i, url := range input.Images {
		spot.Images = append(spot.Images, models.SpotImage{URL: url, Preview: i == 0})
	}

	if err := storage.DB.Create(&spot).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(spot)
}

func GetSpots(ctx iris.Context) {
	var spots []models.Spot
	res := storage.DB.
		Preload("Images", "preview = ?", true).
		Order("created_at DESC").
		Find(&spots)
	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"spots": spots})
}

func GetSpotsByOwnerID(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	var spots []models.Spot
	res := storage.DB.Preload("Images").Where("owner_id = ?", id).Find(&spots)
	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"spots": spots})
}

func GetSpot(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	var spot models.Spot
	res := storage.DB.
		Preload("Images").
		Preload("Reviews").
		Preload("Owner").
		First(&spot, id)
	if res.Error != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Spot couldn't be found.", ctx)
		return
	}

	var avgRating float64
	storage.DB.Model(&models.Review{}).
		Where("spot_id = ?", spot.ID).
		Select("COALESCE(AVG(stars), 0)").
		Scan(&avgRating)

	ctx.JSON(iris.Map{
		"spot":      &spot,
		"avgRating": avgRating,
	})
}

type UpdateSpotInput struct {
	Name         string  `json:"name" validate:"required,max=256"`
	Description  string  `json:"description" validate:"required"`
	AddressLine1 string  `json:"addressLine1" validate:"required,max=512"`
	AddressLine2 string  `json:"addressLine2" validate:"max=512"`
	City         string  `json:"city" validate:"required,max=256"`
	State        string  `json:"state" validate:"max=256"`
	Zip          string  `json:"zip" validate:"max=32"`
	Country      string  `json:"country" validate:"required,max=256"`
	Lat          float32 `json:"lat" validate:"min=-90,max=90"`
	Lng          float32 `json:"lng" validate:"min=-180,max=180"`
	NightlyPrice float32 `json:"nightlyPrice" validate:"required,gt=0"`
	Currency     string  `json:"currency" validate:"max=8"`
}

func UpdateSpot(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	spot := ownedSpotOr403(ctx, userID)
	if spot == nil {
		return
	}

	var input UpdateSpotInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	spot.Name = input.Name
	spot.Description = input.Description
	spot.AddressLine1 = input.AddressLine1
	spot.AddressLine2 = input.AddressLine2
	spot.City = input.City
	spot.State = input.State
	spot.Zip = input.Zip
	spot.Country = input.Country
	spot.Lat = input.Lat
	spot.Lng = input.Lng
	spot.NightlyPrice = input.NightlyPrice
	spot.Currency = input.Currency

	if err := storage.DB.Save(spot).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(spot)
}

// DeleteSpot removes a spot and, in the same transaction, everything that
// hangs off it. The cascade is an explicit application-level step, not a
// mapper hook.
func DeleteSpot(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	spot := ownedSpotOr403(ctx, userID)
	if spot == nil {
		return
	}

	err := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("spot_id = ?", spot.ID).Delete(&models.Booking{}).Error; err != nil {
			return err
		}
		var reviewIDs []uint
		if err := tx.Model(&models.Review{}).Where("spot_id = ?", spot.ID).Pluck("id", &reviewIDs).Error; err != nil {
			return err
		}
		if len(reviewIDs) > 0 {
			if err := tx.Unscoped().Where("review_id IN ?", reviewIDs).Delete(&models.ReviewImage{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Unscoped().Where("spot_id = ?", spot.ID).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("spot_id = ?", spot.ID).Delete(&models.SpotImage{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&models.Spot{}, spot.ID).Error
	})
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"message": "Successfully deleted"})
}

type AddSpotImageInput struct {
	URL     string `json:"url" validate:"required,url"`
	Preview bool   `json:"preview"`
}

func AddSpotImage(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	spot := ownedSpotOr403(ctx, userID)
	if spot == nil {
		return
	}

	var input AddSpotImageInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	image := models.SpotImage{SpotID: spot.ID, URL: input.URL, Preview: input.Preview}
	if input.Preview {
		// only one preview image per spot
		storage.DB.Model(&models.SpotImage{}).Where("spot_id = ?", spot.ID).Update("preview", false)
	}
	if err := storage.DB.Create(&image).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(image)
}

func DeleteSpotImage(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	imageID := ctx.Params().Get("imageID")

	var image models.SpotImage
	if err := storage.DB.First(&image, imageID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Spot image couldn't be found.", ctx)
		return
	}

	var spot models.Spot
	if err := storage.DB.First(&spot, image.SpotID).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if spot.OwnerID != userID {
		utils.CreateError(iris.StatusForbidden, "Forbidden", "Forbidden", ctx)
		return
	}

	storage.DB.Unscoped().Delete(&image)
	ctx.JSON(iris.Map{"message": "Successfully deleted"})
}

// ownedSpotOr403 loads the {id} spot and enforces ownership, writing the
// error response itself when the check fails.
func ownedSpotOr403(ctx iris.Context, userID uint) *models.Spot {
	params := ctx.Params()
	id := params.Get("id")

	var spot models.Spot
	res := storage.DB.First(&spot, id)
	if res.Error != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Spot couldn't be found.", ctx)
		return nil
	}

	if spot.OwnerID != userID {
		utils.CreateError(iris.StatusForbidden, "Forbidden", "Forbidden", ctx)
		return nil
	}

	return &spot
}
