package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Staff Report API",
        "description": "Monthly staff reporting backend: roster, report workflow, college rollups, exports",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login, token refresh, password management"},
        {"name": "Departments", "description": "Department catalog"},
        {"name": "Staff", "description": "Staff roster management"},
        {"name": "Reports", "description": "Monthly report snapshots and workflow"},
        {"name": "Exports", "description": "Document export jobs and downloads"},
        {"name": "Notifications", "description": "Workflow notification feed"},
        {"name": "Users", "description": "Account administration"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Revoke refresh token",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/auth/change-password": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Change password",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user claims",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/departments": {
            "get": {
                "tags": ["Departments"],
                "summary": "List departments",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Departments"],
                "summary": "Register department",
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/departments/{id}": {
            "get": {
                "tags": ["Departments"],
                "summary": "Get department",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "patch": {
                "tags": ["Departments"],
                "summary": "Edit department",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/staff": {
            "get": {
                "tags": ["Staff"],
                "summary": "List staff",
                "parameters": [
                    {"name": "department_id", "in": "query", "type": "string"},
                    {"name": "category", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Staff"],
                "summary": "Add staff member",
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/staff/{id}": {
            "get": {
                "tags": ["Staff"],
                "summary": "Get staff member",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "patch": {
                "tags": ["Staff"],
                "summary": "Edit staff member",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "delete": {
                "tags": ["Staff"],
                "summary": "Deactivate staff member",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/staff/import": {
            "post": {
                "tags": ["Staff"],
                "summary": "Bulk import staff from CSV",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "department_id", "in": "formData", "required": true, "type": "string"},
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "Import summary"}
                }
            }
        },
        "/reports": {
            "get": {
                "tags": ["Reports"],
                "summary": "List monthly reports",
                "parameters": [
                    {"name": "month", "in": "query", "type": "integer"},
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "department_id", "in": "query", "type": "string"},
                    {"name": "college", "in": "query", "type": "boolean"},
                    {"name": "status", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Reports"],
                "summary": "Generate monthly report snapshot",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateReportRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Report already exists"}
                }
            }
        },
        "/reports/rollup": {
            "post": {
                "tags": ["Reports"],
                "summary": "Generate the college rollup for a period",
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Rollup already exists"},
                    "412": {"description": "No approved department reports"}
                }
            }
        },
        "/reports/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Get report",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "delete": {
                "tags": ["Reports"],
                "summary": "Delete report and entries",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/reports/{id}/submit": {
            "post": {
                "tags": ["Reports"],
                "summary": "Submit report for review",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Illegal transition"}
                }
            }
        },
        "/reports/{id}/approve": {
            "post": {
                "tags": ["Reports"],
                "summary": "Approve submitted report",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Illegal transition"}
                }
            }
        },
        "/reports/{id}/reject": {
            "post": {
                "tags": ["Reports"],
                "summary": "Reject submitted report with reason",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Illegal transition"}
                }
            }
        },
        "/reports/{id}/entries": {
            "get": {
                "tags": ["Reports"],
                "summary": "List snapshot entries",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/reports/{id}/entries/{entryId}": {
            "patch": {
                "tags": ["Reports"],
                "summary": "Edit entry status or remark",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "entryId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/reports/{id}/export": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a document export",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "202": {"description": "Accepted"}
                }
            }
        },
        "/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export job status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/export/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download finished export",
                "produces": ["application/octet-stream"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        },
        "/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List notifications",
                "parameters": [
                    {"name": "unread", "in": "query", "type": "boolean"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/notifications/{id}/read": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Mark notification read",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List accounts",
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["Users"],
                "summary": "Register account",
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/users/{id}": {
            "get": {
                "tags": ["Users"],
                "summary": "Get account",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "patch": {
                "tags": ["Users"],
                "summary": "Edit account",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "delete": {
                "tags": ["Users"],
                "summary": "Remove account",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "GenerateReportRequest": {
            "type": "object",
            "required": ["month", "year"],
            "properties": {
                "month": {"type": "integer", "minimum": 1, "maximum": 12},
                "year": {"type": "integer"},
                "department_id": {"type": "string"},
                "regenerate": {"type": "boolean"}
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
