package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "FocusEd API",
        "description": "Lesson observations, reference lists, mail notifications and PDF export",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Observations", "description": "Lesson observation records"},
        {"name": "Reference", "description": "Teachers, departments and focus areas"},
        {"name": "Export", "description": "Printable observation documents"}
    ],
    "paths": {
        "/observations": {
            "get": {
                "tags": ["Observations"],
                "summary": "List observations",
                "parameters": [
                    {"name": "teacher_id", "in": "query", "type": "integer"},
                    {"name": "department_id", "in": "query", "type": "integer"},
                    {"name": "focus_area_id", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid filter", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/observations/export": {
            "get": {
                "tags": ["Observations"],
                "summary": "Export observations as CSV",
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "teacher_id", "in": "query", "type": "integer"},
                    {"name": "department_id", "in": "query", "type": "integer"},
                    {"name": "focus_area_id", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "CSV file"}
                }
            }
        },
        "/new": {
            "post": {
                "tags": ["Observations"],
                "summary": "Record an observation",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateObservationRequest"}},
                    {"name": "notify", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Mailer call failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/observations/{id}": {
            "get": {
                "tags": ["Observations"],
                "summary": "Get observation detail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Observations"],
                "summary": "Partially update an observation",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/UpdateObservationRequest"}},
                    {"name": "notify", "in": "query", "type": "boolean"},
                    {"name": "resend", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Nothing to update or invalid field", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Observations"],
                "summary": "Delete an observation",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/observations/{id}/email": {
            "post": {
                "tags": ["Observations"],
                "summary": "Email an observation to its teacher",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Mailer call failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/pdf/{id}": {
            "get": {
                "tags": ["Export"],
                "summary": "Download an observation as PDF",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "PDF document"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Renderer failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers": {
            "get": {
                "tags": ["Reference"],
                "summary": "List teachers",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No teachers", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/departments": {
            "get": {
                "tags": ["Reference"],
                "summary": "List departments",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No departments", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/focus_areas": {
            "get": {
                "tags": ["Reference"],
                "summary": "List focus areas",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No focus areas", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateObservationRequest": {
            "type": "object",
            "required": ["teacher_id", "department_id", "focus_area_id", "class_name"],
            "properties": {
                "teacher_id": {"type": "integer"},
                "department_id": {"type": "integer"},
                "focus_area_id": {"type": "integer"},
                "class_name": {"type": "string", "maxLength": 16},
                "strengths": {"type": "string", "maxLength": 1000},
                "weaknesses": {"type": "string", "maxLength": 1000},
                "comments": {"type": "string", "maxLength": 1000}
            }
        },
        "UpdateObservationRequest": {
            "type": "object",
            "properties": {
                "teacher_id": {"type": "integer"},
                "department_id": {"type": "integer"},
                "focus_area_id": {"type": "integer"},
                "class_name": {"type": "string", "maxLength": 16},
                "strengths": {"type": "string", "maxLength": 1000},
                "weaknesses": {"type": "string", "maxLength": 1000},
                "comments": {"type": "string", "maxLength": 1000}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
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
