package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Course Load API",
        "description": "Course-instructor assignment engine with workload ledger",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Auth", "description": "Authentication"},
        {"name": "Users", "description": "Account administration"},
        {"name": "Courses", "description": "Course catalog"},
        {"name": "Positions", "description": "Academic positions and exemptions"},
        {"name": "Instructors", "description": "Instructor profiles and workload ledger"},
        {"name": "Preferences", "description": "Preference forms and submissions"},
        {"name": "Weights", "description": "Preference and experience weight tables"},
        {"name": "Allocations", "description": "Allocator runs"},
        {"name": "Assignments", "description": "Stored allocation records and exports"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate and issue an access token",
                "responses": {
                    "200": {"description": "Token issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/allocations/manual": {
            "post": {
                "tags": ["Allocations"],
                "summary": "Run the manual allocator",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Assignment record created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/allocations/common": {
            "post": {
                "tags": ["Allocations"],
                "summary": "Run the common-course automatic allocator",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Assignment record created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/allocations/extension": {
            "post": {
                "tags": ["Allocations"],
                "summary": "Run the extension-program allocator",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Assignment record created or appended", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/allocations/summer": {
            "post": {
                "tags": ["Allocations"],
                "summary": "Run the summer-program allocator",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Assignment record created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/allocations/preference": {
            "post": {
                "tags": ["Allocations"],
                "summary": "Run the preference-score allocator over a form",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Assignment record created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
