// Package docs registers the Swagger document of the travel recap API.
// Regenerate with: swag init -g internal/api/router.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/place-locations": {
            "get": {
                "description": "Returns place locations, optionally limited to places with a visit starting in the given year (UTC).",
                "produces": ["application/json"],
                "tags": ["locations"],
                "summary": "Get place locations (legacy path)",
                "parameters": [
                    {"type": "integer", "description": "Filter locations by year (1900-2100)", "name": "year", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/place.Location"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.Problem"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.Problem"}}
                }
            }
        },
        "/v1/place-locations": {
            "get": {
                "description": "Returns place locations, optionally limited to places with a visit starting in the given year (UTC).",
                "produces": ["application/json"],
                "tags": ["locations"],
                "summary": "Get place locations",
                "parameters": [
                    {"type": "integer", "description": "Filter locations by year (1900-2100)", "name": "year", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/place.Location"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.Problem"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.Problem"}}
                }
            }
        },
        "/v1/recaps": {
            "post": {
                "description": "Parses a location-history export (a semanticSegments object or a root array of segments) and returns statistics, eco stats and the encoded travel path.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["recaps"],
                "summary": "Compute a travel recap",
                "parameters": [
                    {"type": "number", "description": "Minimum visit probability in [0,1]", "name": "probabilityThreshold", "in": "query"},
                    {"type": "integer", "description": "Limit the recap to one year", "name": "year", "in": "query"},
                    {"description": "Timeline export", "name": "export", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/recap.Report"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.Problem"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.Problem"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/models.Problem"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/models.Problem"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/models.Problem"}}
                }
            }
        },
        "/v1/ops/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["ops"],
                "summary": "Liveness check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Health"}}
                }
            }
        },
        "/v1/ops/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["ops"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Health"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/models.Problem"}}
                }
            }
        },
        "/v1/ops/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["ops"],
                "summary": "Subsystem and fetcher status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.SystemStatus"}}
                }
            }
        }
    },
    "definitions": {
        "models.FieldError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "field": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "models.Problem": {
            "type": "object",
            "properties": {
                "detail": {"type": "string"},
                "errors": {"type": "array", "items": {"$ref": "#/definitions/models.FieldError"}},
                "instance": {"type": "string"},
                "status": {"type": "integer"},
                "title": {"type": "string"},
                "traceId": {"type": "string"},
                "type": {"type": "string"}
            }
        },
        "models.Health": {
            "type": "object",
            "properties": {
                "details": {"type": "object", "additionalProperties": true},
                "status": {"type": "string", "enum": ["OK", "DEGRADED", "FAIL"]},
                "time": {"type": "string", "format": "date-time"}
            }
        },
        "models.SubsystemStatus": {
            "type": "object",
            "properties": {
                "detail": {"type": "string"},
                "name": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "models.FetcherStatus": {
            "type": "object",
            "properties": {
                "circuit": {"type": "string"},
                "lastFailureAt": {"type": "string", "format": "date-time"},
                "lastSuccessAt": {"type": "string", "format": "date-time"},
                "message": {"type": "string"},
                "name": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "models.SystemStatus": {
            "type": "object",
            "properties": {
                "fetchers": {"type": "array", "items": {"$ref": "#/definitions/models.FetcherStatus"}},
                "status": {"type": "string"},
                "subsystems": {"type": "array", "items": {"$ref": "#/definitions/models.SubsystemStatus"}},
                "time": {"type": "string", "format": "date-time"}
            }
        },
        "place.Location": {
            "type": "object",
            "properties": {
                "city": {"type": "string"},
                "country": {"type": "string"},
                "lat": {"type": "number"},
                "lng": {"type": "number"},
                "place_id": {"type": "string"}
            }
        },
        "recap.Report": {
            "type": "object",
            "properties": {
                "skipped": {"type": "integer"},
                "summary": {"$ref": "#/definitions/recap.Summary"},
                "years": {"type": "array", "items": {"type": "integer"}}
            }
        },
        "recap.Summary": {
            "type": "object",
            "properties": {
                "advanced": {"type": "object"},
                "locationCount": {"type": "integer"},
                "path": {"type": "string", "description": "Google encoded polyline of the travel path"},
                "pathLengthMeters": {"type": "number"},
                "segmentCount": {"type": "integer"},
                "stats": {"type": "object"},
                "topPlaces": {"type": "array", "items": {"type": "object"}},
                "year": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Travel Recap API",
	Description:      "Travel statistics from location-history exports, and the stored place locations behind the map.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
