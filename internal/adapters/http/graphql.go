package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/parkfinder/internal/core/domain"
)

// buildSchema creates the read-only GraphQL schema over the park service.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	activityType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Activity",
		Fields: graphql.Fields{
			"name":        &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
		},
	})

	parkType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Park",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"park_code":   &graphql.Field{Type: graphql.String},
			"park_url":    &graphql.Field{Type: graphql.String},
			"state_code":  &graphql.Field{Type: graphql.String},
			"latitude":    &graphql.Field{Type: graphql.Float},
			"longitude":   &graphql.Field{Type: graphql.Float},
			"activities":  &graphql.Field{Type: graphql.NewList(activityType)},
			"distance_km": &graphql.Field{Type: graphql.Float},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"parks": &graphql.Field{
				Type:        graphql.NewList(parkType),
				Description: "List all parks",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Parks.List(p.Context)
				},
			},
			"park": &graphql.Field{
				Type:        parkType,
				Description: "Get a park by park code",
				Args: graphql.FieldConfigArgument{
					"code": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					park, err := deps.Parks.Get(p.Context, p.Args["code"].(string))
					if errors.Is(err, domain.ErrNotFound) {
						return nil, nil
					}
					return park, err
				},
			},
			"searchParks": &graphql.Field{
				Type:        graphql.NewList(parkType),
				Description: "Parks near a point offering an activity, nearest first",
				Args: graphql.FieldConfigArgument{
					"lat":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"activity": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"radius":   &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: domain.DefaultSearchRadiusKm},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat := p.Args["lat"].(float64)
					lon := p.Args["lon"].(float64)
					activity, _ := p.Args["activity"].(string)
					radius, _ := p.Args["radius"].(float64)
					return deps.Parks.Search(p.Context, lat, lon, activity, radius)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
