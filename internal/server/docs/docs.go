// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with go generate ./internal/server after changing annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "Crumb Maintainers",
            "url": "https://github.com/raysh454/crumb"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/scans": {
            "post": {
                "description": "Accepts either a bare cookie array or the wrapped scan object and runs the full pipeline.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["scans"],
                "summary": "Ingest a raw scan",
                "parameters": [
                    {"description": "Raw scan", "name": "scan", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.RawScan"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/auditor.ScanResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/server.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/scans/run": {
            "post": {
                "description": "Acquires a scan from the configured source and runs the full pipeline.",
                "produces": ["application/json"],
                "tags": ["scans"],
                "summary": "Run a scan",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/auditor.ScanResult"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/snapshots": {
            "get": {
                "produces": ["application/json"],
                "tags": ["history"],
                "summary": "List snapshots within a time range, oldest first",
                "parameters": [
                    {"type": "string", "description": "7days, 30days or all", "name": "range", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.ScanSnapshot"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["history"],
                "summary": "Delete every stored snapshot",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/snapshots/latest": {
            "get": {
                "produces": ["application/json"],
                "tags": ["history"],
                "summary": "Get the newest snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.ScanSnapshot"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/snapshots/diff": {
            "get": {
                "produces": ["application/json"],
                "tags": ["history"],
                "summary": "Diff the cookie inventories of the two newest snapshots",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/report.InventoryDiff"}}
                }
            }
        },
        "/trend": {
            "get": {
                "produces": ["application/json"],
                "tags": ["history"],
                "summary": "Summarize the score trend within a time range",
                "parameters": [
                    {"type": "string", "description": "7days, 30days or all", "name": "range", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/report.TrendReport"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/companies": {
            "get": {
                "produces": ["application/json"],
                "tags": ["companies"],
                "summary": "List tracking companies of the latest scan",
                "parameters": [
                    {"type": "string", "description": "cookie-count, risk or alphabetical", "name": "sort", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.CompanyTrackerData"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/cookies/delete": {
            "post": {
                "description": "Applies to the cookies of the latest scan. At least one criterion is required.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["companies"],
                "summary": "Delete cookies of a company and/or category",
                "parameters": [
                    {"description": "Selection", "name": "selector", "in": "body", "required": true, "schema": {"$ref": "#/definitions/server.DeleteCookiesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/auditor.DeleteResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/server.ErrorResponse"}},
                    "501": {"description": "Not Implemented", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/commands": {
            "post": {
                "description": "Body is {\"kind\": \"...\", ...arguments}; see auditor.DecodeCommand for kinds.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["commands"],
                "summary": "Dispatch a kind-tagged command",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/auditor.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/jobs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "List jobs",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/auditor.Job"}}}
                }
            }
        },
        "/jobs/scan": {
            "post": {
                "description": "Scans the posted raw scan, or the configured source when the body is empty.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Start a background scan",
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/auditor.Job"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/server.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/jobs/{jobID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Get a job",
                "parameters": [
                    {"type": "string", "description": "Job ID", "name": "jobID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/auditor.Job"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["jobs"],
                "summary": "Cancel a job",
                "parameters": [
                    {"type": "string", "description": "Job ID", "name": "jobID", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "auditor.DeleteResult": {
            "type": "object",
            "properties": {
                "selector": {"$ref": "#/definitions/report.Selector"},
                "selected": {"type": "integer"},
                "deleted": {"type": "integer"},
                "cookies": {"type": "array", "items": {"$ref": "#/definitions/model.Cookie"}}
            }
        },
        "auditor.Job": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "type": {"type": "string"},
                "status": {"type": "string", "enum": ["pending", "running", "done", "failed", "canceled"]},
                "error": {"type": "string"},
                "started_at": {"type": "string"},
                "ended_at": {"type": "string"},
                "result": {"$ref": "#/definitions/auditor.ScanResult"}
            }
        },
        "auditor.Response": {
            "type": "object",
            "properties": {
                "kind": {"type": "string"},
                "scan": {"$ref": "#/definitions/auditor.ScanResult"},
                "snapshot": {"$ref": "#/definitions/model.ScanSnapshot"},
                "history": {"type": "array", "items": {"$ref": "#/definitions/model.ScanSnapshot"}},
                "trend": {"$ref": "#/definitions/report.TrendReport"},
                "companies": {"type": "array", "items": {"$ref": "#/definitions/model.CompanyTrackerData"}},
                "deleted": {"$ref": "#/definitions/auditor.DeleteResult"},
                "diff": {"$ref": "#/definitions/report.InventoryDiff"}
            }
        },
        "auditor.ScanResult": {
            "type": "object",
            "properties": {
                "snapshot": {"$ref": "#/definitions/model.ScanSnapshot"},
                "analysis": {"$ref": "#/definitions/model.PrivacyAnalysis"},
                "grade": {"type": "string"},
                "companies": {"type": "array", "items": {"$ref": "#/definitions/model.CompanyTrackerData"}},
                "cookies": {"type": "array", "items": {"$ref": "#/definitions/model.CategorizedCookie"}},
                "thirdPartyScripts": {"type": "array", "items": {"type": "string"}},
                "saved": {"type": "boolean"}
            }
        },
        "model.Cookie": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "value": {"type": "string"},
                "domain": {"type": "string"},
                "path": {"type": "string"},
                "secure": {"type": "boolean"},
                "httpOnly": {"type": "boolean"},
                "sameSite": {"type": "string", "enum": ["no_restriction", "lax", "strict", "unspecified"]},
                "session": {"type": "boolean"},
                "expirationDate": {"type": "number"}
            }
        },
        "model.CategorizedCookie": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "value": {"type": "string"},
                "domain": {"type": "string"},
                "path": {"type": "string"},
                "secure": {"type": "boolean"},
                "httpOnly": {"type": "boolean"},
                "sameSite": {"type": "string"},
                "session": {"type": "boolean"},
                "expirationDate": {"type": "number"},
                "category": {"type": "string"},
                "risk": {"type": "string"},
                "isTracking": {"type": "boolean"},
                "company": {"type": "string"}
            }
        },
        "model.CompanyTrackerData": {
            "type": "object",
            "properties": {
                "company": {"type": "string"},
                "domains": {"type": "array", "items": {"type": "string"}},
                "cookieCount": {"type": "integer"},
                "cookies": {"type": "array", "items": {"$ref": "#/definitions/model.CategorizedCookie"}},
                "category": {"type": "string"},
                "risk": {"type": "string"},
                "description": {"type": "string"},
                "siteCount": {"type": "integer"}
            }
        },
        "model.PrivacyAnalysis": {
            "type": "object",
            "properties": {
                "score": {"type": "integer"},
                "breakdown": {"type": "object", "additionalProperties": {"type": "integer"}},
                "recommendations": {"type": "array", "items": {"type": "object"}},
                "highRiskItems": {"type": "array", "items": {"type": "object"}},
                "deductions": {"type": "array", "items": {"type": "object"}}
            }
        },
        "model.RawScan": {
            "type": "object",
            "properties": {
                "cookies": {"type": "array", "items": {"$ref": "#/definitions/model.Cookie"}},
                "localStorage": {"type": "object"},
                "sessionStorage": {"type": "object"},
                "indexedDB": {"type": "object"},
                "metadata": {"type": "object"},
                "thirdPartyScripts": {"type": "array", "items": {"type": "string"}}
            }
        },
        "model.ScanSnapshot": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "timestamp": {"type": "integer"},
                "score": {"type": "integer"},
                "totalCookies": {"type": "integer"},
                "trackingCookies": {"type": "integer"},
                "uniqueDomains": {"type": "integer"},
                "storageSizeMB": {"type": "number"},
                "categories": {"type": "object", "additionalProperties": {"type": "integer"}},
                "inventory": {"type": "array", "items": {"type": "string"}},
                "analysis": {"$ref": "#/definitions/model.PrivacyAnalysis"}
            }
        },
        "report.InventoryDiff": {
            "type": "object",
            "properties": {
                "baseId": {"type": "string"},
                "headId": {"type": "string"},
                "added": {"type": "array", "items": {"type": "string"}},
                "removed": {"type": "array", "items": {"type": "string"}}
            }
        },
        "report.Selector": {
            "type": "object",
            "properties": {
                "company": {"type": "string"},
                "category": {"type": "string"}
            }
        },
        "report.TrendReport": {
            "type": "object",
            "properties": {
                "range": {"type": "string"},
                "points": {"type": "array", "items": {"$ref": "#/definitions/model.ScanSnapshot"}},
                "trend": {"type": "string", "enum": ["improving", "declining", "stable"]},
                "change": {"type": "object"},
                "cookiesCleared": {"type": "integer"},
                "averageScore": {"type": "number"}
            }
        },
        "server.DeleteCookiesRequest": {
            "type": "object",
            "properties": {
                "company": {"type": "string", "example": "Google"},
                "category": {"type": "string", "example": "advertising"}
            }
        },
        "server.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "no snapshots recorded"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Crumb API",
	Description:      "Local dashboard backend for browser storage privacy audits.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
