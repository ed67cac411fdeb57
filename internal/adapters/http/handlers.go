package http

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/parkfinder/internal/core/domain"
)

// parkRequest is the body accepted by create and update.
type parkRequest struct {
	Name       string            `json:"name"`
	StateCode  string            `json:"state_code"`
	ParkURL    *string           `json:"park_url"`
	Latitude   *float64          `json:"latitude"`
	Longitude  *float64          `json:"longitude"`
	Activities []domain.Activity `json:"activities"`
}

func (r parkRequest) toDomain() (*domain.Park, error) {
	if r.Latitude == nil || r.Longitude == nil {
		return nil, fmt.Errorf("latitude and longitude are required")
	}
	activities := r.Activities
	if activities == nil {
		activities = []domain.Activity{}
	}
	return &domain.Park{
		Name:       r.Name,
		StateCode:  r.StateCode,
		ParkURL:    r.ParkURL,
		Latitude:   *r.Latitude,
		Longitude:  *r.Longitude,
		Activities: activities,
	}, nil
}

func parseParkBody(c *fiber.Ctx) (*domain.Park, error) {
	var req parkRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	return req.toDomain()
}

// ListParksHandler returns every park.
func ListParksHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		parks, err := deps.Parks.List(c.UserContext())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(parks)
	}
}

// GetParkHandler returns one park by park code.
func GetParkHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		park, err := deps.Parks.Get(c.UserContext(), c.Params("code"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(park)
	}
}

// CreateParkHandler stores a new park and returns it with its park code.
func CreateParkHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		park, err := parseParkBody(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		created, err := deps.Parks.Create(c.UserContext(), park)
		if err != nil {
			return writeError(c, err)
		}

		c.Location("/v1/parks/" + created.ParkCode)
		return c.Status(fiber.StatusCreated).JSON(created)
	}
}

// UpdateParkHandler replaces a park's fields and activities.
func UpdateParkHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		park, err := parseParkBody(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		updated, err := deps.Parks.Update(c.UserContext(), c.Params("code"), park)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(updated)
	}
}

// DeleteParkHandler removes a park.
func DeleteParkHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Parks.Delete(c.UserContext(), c.Params("code")); err != nil {
			return writeError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// SearchParksHandler returns parks near lat/lon offering activity, nearest
// first. Without an activity every park is returned.
func SearchParksHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat, err := requiredFloat(c, "lat")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		lon, err := requiredFloat(c, "lon")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		radius := domain.DefaultSearchRadiusKm
		if raw := c.Query("radius"); raw != "" {
			radius, err = strconv.ParseFloat(raw, 64)
			if err != nil {
				return errBadRequest(c, "radius must be a number (km)")
			}
		}
		activity := c.Query("activity")
		if len(activity) > 200 {
			return errBadRequest(c, "activity too long (max 200 characters)")
		}

		parks, err := deps.Parks.Search(c.UserContext(), lat, lon, activity, radius)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(parks)
	}
}

func requiredFloat(c *fiber.Ctx, name string) (float64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	return v, nil
}
