package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Registrar API",
        "description": "Enrollment resolution and cross-collection consistency for the school registrar",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [
        {"BearerAuth": []}
    ],
    "tags": [
        {"name": "System Config", "description": "Active academic period and enrollment windows"},
        {"name": "Enrollments", "description": "Enrollment lifecycle across replicas"},
        {"name": "Sections", "description": "Section roster membership"},
        {"name": "Student IDs", "description": "School student id counter"},
        {"name": "Observability", "description": "Health and metrics"}
    ],
    "paths": {
        "/system-config": {
            "get": {
                "tags": ["System Config"],
                "summary": "Get the active academic period",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}},
                    "502": {"description": "Store error", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            },
            "put": {
                "tags": ["System Config"],
                "summary": "Update the active academic period",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/SystemConfigRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/students/{studentId}/enrollments": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Submit an enrollment application",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "studentId", "required": true, "type": "string"},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/SubmitEnrollmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Envelope"}},
                    "400": {"description": "Validation error or enrollment closed", "schema": {"$ref": "#/definitions/Envelope"}},
                    "502": {"description": "Store error", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/students/{studentId}/enrollment": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "Resolve a student's enrollment",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "studentId", "required": true, "type": "string"},
                    {"in": "query", "name": "ay", "type": "string", "description": "Academic year code, e.g. AY2526"},
                    {"in": "query", "name": "semester", "type": "string", "enum": ["1", "2"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            },
            "delete": {
                "tags": ["Enrollments"],
                "summary": "Delete a student's enrollment from every replica",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "studentId", "required": true, "type": "string"},
                    {"in": "query", "name": "level", "type": "string", "enum": ["college", "high-school"]},
                    {"in": "query", "name": "semester", "type": "string", "enum": ["1", "2"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/students/{studentId}/enroll": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Mark a pending enrollment as enrolled",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "studentId", "required": true, "type": "string"},
                    {"in": "body", "name": "payload", "schema": {"$ref": "#/definitions/EnrollStudentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/students/{studentId}/revoke": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Return an enrollment to pending",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "studentId", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/enrollments": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List top-level enrollments",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "query", "name": "ay", "type": "string", "description": "Academic year code; empty lists every year"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/enrollments/enrolled": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List enrolled students",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/sections/{sectionId}/students/{studentId}": {
            "put": {
                "tags": ["Sections"],
                "summary": "Assign a student to a section",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "sectionId", "required": true, "type": "string"},
                    {"in": "path", "name": "studentId", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            },
            "delete": {
                "tags": ["Sections"],
                "summary": "Remove a student from a section",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "sectionId", "required": true, "type": "string"},
                    {"in": "path", "name": "studentId", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/student-ids/latest": {
            "get": {
                "tags": ["Student IDs"],
                "summary": "Get the latest issued school student id",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            },
            "put": {
                "tags": ["Student IDs"],
                "summary": "Record the latest issued school student id",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/StudentIDRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": ["Observability"],
                "summary": "Registrar metrics summary",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}
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
        "ReplicaWarning": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "replica": {"type": "string"},
                "path": {"type": "string"},
                "message": {"type": "string"},
                "queued": {"type": "boolean"}
            }
        },
        "EnrollmentWindow": {
            "type": "object",
            "properties": {
                "opensAt": {"type": "string", "format": "date-time"},
                "closesAt": {"type": "string", "format": "date-time"}
            }
        },
        "SystemConfigRequest": {
            "type": "object",
            "required": ["academicYear"],
            "properties": {
                "academicYear": {"type": "string", "example": "AY2526"},
                "semester": {"type": "string", "enum": ["1", "2"]},
                "enrollmentWindows": {
                    "type": "object",
                    "properties": {
                        "college": {"$ref": "#/definitions/EnrollmentWindow"},
                        "high-school": {"$ref": "#/definitions/EnrollmentWindow"}
                    }
                }
            }
        },
        "SubmitEnrollmentRequest": {
            "type": "object",
            "required": ["level"],
            "properties": {
                "personalInfo": {"type": "object"},
                "level": {"type": "string", "enum": ["college", "high-school"]},
                "department": {"type": "string", "enum": ["SHS", "JHS"]},
                "strand": {"type": "string"},
                "courseCode": {"type": "string"},
                "courseName": {"type": "string"},
                "yearLevel": {"type": "integer"},
                "gradeLevel": {"type": "integer"},
                "semester": {"type": "string", "enum": ["1", "2"]},
                "schoolYear": {"type": "string"},
                "studentType": {"type": "string", "enum": ["regular", "irregular"]},
                "selectedSubjects": {"type": "array", "items": {"type": "string"}}
            }
        },
        "EnrollStudentRequest": {
            "type": "object",
            "properties": {
                "subjectIds": {"type": "array", "items": {"type": "string"}},
                "orNumber": {"type": "string"},
                "scholarship": {"type": "string"},
                "schoolStudentId": {"type": "string"},
                "studentType": {"type": "string", "enum": ["regular", "irregular"]},
                "level": {"type": "string", "enum": ["college", "high-school"]},
                "semester": {"type": "string", "enum": ["1", "2"]}
            }
        },
        "StudentIDRequest": {
            "type": "object",
            "required": ["latestId"],
            "properties": {
                "latestId": {"type": "string"}
            }
        },
        "Envelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "warnings": {"type": "array", "items": {"$ref": "#/definitions/ReplicaWarning"}},
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
