package handler

import (
	"time"

	"github.com/iliyamo/recipe-share/internal/model"
)

// ----- users -----

// userResp is the public view of an account. The password hash never
// appears; isAdmin is only shown to the account itself and to admins.
type userResp struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsAdmin   *bool     `json:"isAdmin,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func userFrom(u *model.User, showRole bool) userResp {
	out := userResp{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
	if showRole {
		admin := u.IsAdmin
		out.IsAdmin = &admin
	}
	return out
}

type ownerResp struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ----- recipes -----

type ingredientDTO struct {
	ID       uint64  `json:"id,omitempty"`
	RecipeID uint64  `json:"recipeId,omitempty"`
	Name     string  `json:"name"`
	Unit     string  `json:"unit"`
	Value    float64 `json:"value"`
}

type stepDTO struct {
	ID          uint64 `json:"id,omitempty"`
	RecipeID    uint64 `json:"recipeId,omitempty"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

type tagDTO struct {
	ID       uint64 `json:"id,omitempty"`
	RecipeID uint64 `json:"recipeId,omitempty"`
	Value    string `json:"value"`
}

// recipeDTO is both the request body for create/update and the response
// shape. Scalar columns keep their snake_case wire names.
type recipeDTO struct {
	ID                   uint64          `json:"id,omitempty"`
	Name                 string          `json:"name"`
	Date                 string          `json:"date"`
	Image                string          `json:"image"`
	PreparationTimeValue int             `json:"preparation_time_value"`
	PreparationTimeUnit  string          `json:"preparation_time_unit"`
	BakingTimeValue      int             `json:"baking_time_value"`
	BakingTimeUnit       string          `json:"baking_time_unit"`
	Thermostat           int             `json:"thermostat"`
	RestingTimeValue     int             `json:"resting_time_value"`
	RestingTimeUnit      string          `json:"resting_time_unit"`
	NumberOfPersons      int             `json:"number_of_persons"`
	Link                 string          `json:"link"`
	OwnerID              uint64          `json:"ownerId,omitempty"`
	Owner                *ownerResp      `json:"owner,omitempty"`
	Ingredients          []ingredientDTO `json:"ingredients"`
	Steps                []stepDTO       `json:"steps"`
	Tags                 []tagDTO        `json:"tags"`
	CreatedAt            *time.Time      `json:"createdAt,omitempty"`
	UpdatedAt            *time.Time      `json:"updatedAt,omitempty"`
}

// toModel converts a request body. Ownership and timestamps are ignored.
func (d recipeDTO) toModel() model.Recipe {
	rec := model.Recipe{
		Name:                 d.Name,
		Date:                 d.Date,
		Image:                d.Image,
		PreparationTimeValue: d.PreparationTimeValue,
		PreparationTimeUnit:  d.PreparationTimeUnit,
		BakingTimeValue:      d.BakingTimeValue,
		BakingTimeUnit:       d.BakingTimeUnit,
		Thermostat:           d.Thermostat,
		RestingTimeValue:     d.RestingTimeValue,
		RestingTimeUnit:      d.RestingTimeUnit,
		NumberOfPersons:      d.NumberOfPersons,
		Link:                 d.Link,
	}
	for _, i := range d.Ingredients {
		rec.Ingredients = append(rec.Ingredients, model.Ingredient{ID: i.ID, Name: i.Name, Unit: i.Unit, Value: i.Value})
	}
	for _, s := range d.Steps {
		rec.Steps = append(rec.Steps, model.Step{ID: s.ID, Description: s.Description, Image: s.Image})
	}
	for _, t := range d.Tags {
		rec.Tags = append(rec.Tags, model.Tag{ID: t.ID, Value: t.Value})
	}
	return rec
}

func recipeFrom(r *model.Recipe) recipeDTO {
	created, updated := r.CreatedAt, r.UpdatedAt
	out := recipeDTO{
		ID:                   r.ID,
		Name:                 r.Name,
		Date:                 r.Date,
		Image:                r.Image,
		PreparationTimeValue: r.PreparationTimeValue,
		PreparationTimeUnit:  r.PreparationTimeUnit,
		BakingTimeValue:      r.BakingTimeValue,
		BakingTimeUnit:       r.BakingTimeUnit,
		Thermostat:           r.Thermostat,
		RestingTimeValue:     r.RestingTimeValue,
		RestingTimeUnit:      r.RestingTimeUnit,
		NumberOfPersons:      r.NumberOfPersons,
		Link:                 r.Link,
		OwnerID:              r.OwnerID,
		Ingredients:          make([]ingredientDTO, 0, len(r.Ingredients)),
		Steps:                make([]stepDTO, 0, len(r.Steps)),
		Tags:                 make([]tagDTO, 0, len(r.Tags)),
		CreatedAt:            &created,
		UpdatedAt:            &updated,
	}
	if r.Owner.ID != 0 {
		out.Owner = &ownerResp{ID: r.Owner.ID, Name: r.Owner.Name, Email: r.Owner.Email}
	}
	for _, i := range r.Ingredients {
		out.Ingredients = append(out.Ingredients, ingredientDTO{ID: i.ID, RecipeID: i.RecipeID, Name: i.Name, Unit: i.Unit, Value: i.Value})
	}
	for _, s := range r.Steps {
		out.Steps = append(out.Steps, stepDTO{ID: s.ID, RecipeID: s.RecipeID, Description: s.Description, Image: s.Image})
	}
	for _, t := range r.Tags {
		out.Tags = append(out.Tags, tagDTO{ID: t.ID, RecipeID: t.RecipeID, Value: t.Value})
	}
	return out
}

func recipesFrom(rs []model.Recipe) []recipeDTO {
	out := make([]recipeDTO, 0, len(rs))
	for i := range rs {
		out = append(out, recipeFrom(&rs[i]))
	}
	return out
}

// ----- favorites -----

type favoriteResp struct {
	ID        uint64    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Recipe    recipeDTO `json:"recipe"`
}

func favoriteFrom(f *model.Favorite) favoriteResp {
	return favoriteResp{ID: f.ID, CreatedAt: f.CreatedAt, Recipe: recipeFrom(&f.Recipe)}
}

// ----- images -----

type imageResp struct {
	ID        uint64    `json:"id"`
	Filename  string    `json:"filename"`
	MimeType  string    `json:"mimeType"`
	Size      int64     `json:"size"`
	OwnerID   uint64    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
}

func imageFrom(img *model.Image) imageResp {
	return imageResp{
		ID:        img.ID,
		Filename:  img.Filename,
		MimeType:  img.MimeType,
		Size:      img.Size,
		OwnerID:   img.OwnerID,
		CreatedAt: img.CreatedAt,
	}
}
