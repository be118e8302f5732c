package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Tutor Shift API",
        "description": "Recurring lesson scheduling and daily shift grids for a tutoring school",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {
            "name": "Shifts"
        },
        {
            "name": "Templates"
        },
        {
            "name": "Lesson Assignments"
        },
        {
            "name": "Teacher Assignments"
        },
        {
            "name": "Calendar"
        },
        {
            "name": "Intensive"
        },
        {
            "name": "Rollover"
        },
        {
            "name": "Reports"
        },
        {
            "name": "Feeds"
        }
    ],
    "paths": {
        "/shifts/{date}": {
            "get": {
                "tags": [
                    "Shifts"
                ],
                "summary": "Get the daily grid, generating it on first access",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "date",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "YYYY-MM-DD"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "put": {
                "tags": [
                    "Shifts"
                ],
                "summary": "Save operator edits of a daily grid",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "date",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "YYYY-MM-DD"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SaveSlotsRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "delete": {
                "tags": [
                    "Shifts"
                ],
                "summary": "Drop the daily grid of a date",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "date",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "YYYY-MM-DD"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/shifts/{date}/reload": {
            "post": {
                "tags": [
                    "Shifts"
                ],
                "summary": "Regenerate and repair a daily grid",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "date",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "YYYY-MM-DD"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/shifts/{date}/reload-week": {
            "post": {
                "tags": [
                    "Shifts"
                ],
                "summary": "Regenerate and repair every school day of the week",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "date",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "YYYY-MM-DD"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/shifts/lessons": {
            "post": {
                "tags": [
                    "Shifts"
                ],
                "summary": "Place a makeup, temporary or intensive lesson",
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/RescheduleRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/shifts/teachers": {
            "post": {
                "tags": [
                    "Shifts"
                ],
                "summary": "Staff a cell's teacher slot for one day",
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/AddTeacherShiftRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/shifts/cells/{id}/teacher": {
            "delete": {
                "tags": [
                    "Shifts"
                ],
                "summary": "Clear a cell's teacher slot",
                "responses": {
                    "204": {
                        "description": "No Content"
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/occurrences/{id}/absence": {
            "post": {
                "tags": [
                    "Shifts"
                ],
                "summary": "Mark a lesson occurrence absent",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/MarkAbsentRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/occurrences/{id}/reported": {
            "patch": {
                "tags": [
                    "Shifts"
                ],
                "summary": "Toggle the billing flag of an occurrence",
                "responses": {
                    "204": {
                        "description": "No Content"
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SetReportedRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/templates": {
            "get": {
                "tags": [
                    "Templates"
                ],
                "summary": "List template cells",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "year",
                        "in": "query",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "name": "weekday",
                        "in": "query",
                        "required": false,
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "put": {
                "tags": [
                    "Templates"
                ],
                "summary": "Save template slot edits",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SaveTemplateRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/templates/initialize": {
            "post": {
                "tags": [
                    "Templates"
                ],
                "summary": "Create missing template cells",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/InitializeTemplateRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/lesson-assignments": {
            "get": {
                "tags": [
                    "Lesson Assignments"
                ],
                "summary": "List weekly lesson assignments",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "person_id",
                        "in": "query",
                        "required": false,
                        "type": "integer"
                    },
                    {
                        "name": "active_on",
                        "in": "query",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "required": false,
                        "type": "integer"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "required": false,
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "post": {
                "tags": [
                    "Lesson Assignments"
                ],
                "summary": "Register a weekly lesson",
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateLessonAssignmentRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/lesson-assignments/{id}": {
            "get": {
                "tags": [
                    "Lesson Assignments"
                ],
                "summary": "Get a weekly lesson assignment",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/teacher-assignments": {
            "get": {
                "tags": [
                    "Teacher Assignments"
                ],
                "summary": "List weekly teacher assignments",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "teacher_id",
                        "in": "query",
                        "required": false,
                        "type": "integer"
                    },
                    {
                        "name": "active_on",
                        "in": "query",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "required": false,
                        "type": "integer"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "required": false,
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "post": {
                "tags": [
                    "Teacher Assignments"
                ],
                "summary": "Register a weekly teacher shift",
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateTeacherAssignmentRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/calendar/events": {
            "get": {
                "tags": [
                    "Calendar"
                ],
                "summary": "List calendar events",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "from",
                        "in": "query",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "name": "to",
                        "in": "query",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "name": "all",
                        "in": "query",
                        "required": false,
                        "type": "boolean"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/calendar/closures": {
            "post": {
                "tags": [
                    "Calendar"
                ],
                "summary": "Close the school on a date",
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/DeclareClosureRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/calendar/closures/{id}": {
            "delete": {
                "tags": [
                    "Calendar"
                ],
                "summary": "Reopen a closed date",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/intensive-periods": {
            "post": {
                "tags": [
                    "Intensive"
                ],
                "summary": "Open an intensive period",
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateIntensivePeriodRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/intensive-periods/{id}": {
            "delete": {
                "tags": [
                    "Intensive"
                ],
                "summary": "Remove an intensive period",
                "responses": {
                    "204": {
                        "description": "No Content"
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/intensive-periods/{id}/assignments": {
            "post": {
                "tags": [
                    "Intensive"
                ],
                "summary": "Enrol a person in an intensive period",
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateIntensiveAssignmentRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/intensive-periods/{id}/person-requests": {
            "put": {
                "tags": [
                    "Intensive"
                ],
                "summary": "Toggle a person's intensive availability",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UpdatePersonRequestsRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/intensive-teacher-requests": {
            "put": {
                "tags": [
                    "Intensive"
                ],
                "summary": "Toggle a teacher's intensive availability",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UpdateTeacherRequestsRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/rollover": {
            "post": {
                "tags": [
                    "Rollover"
                ],
                "summary": "Queue the fiscal-year rollover",
                "responses": {
                    "202": {
                        "description": "Accepted",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/rollover/runs": {
            "get": {
                "tags": [
                    "Rollover"
                ],
                "summary": "List recent rollover runs",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "limit",
                        "in": "query",
                        "required": false,
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/reports/lesson-counts": {
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "Monthly lesson counts for billing",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "month",
                        "in": "query",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "person_id",
                        "in": "query",
                        "required": false,
                        "type": "integer"
                    },
                    {
                        "name": "format",
                        "in": "query",
                        "required": false,
                        "type": "string"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/exports/shifts/{date}": {
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "Export the daily grid as a roster",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "name": "date",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "YYYY-MM-DD"
                    },
                    {
                        "name": "format",
                        "in": "query",
                        "required": false,
                        "type": "string"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/feeds": {
            "post": {
                "tags": [
                    "Feeds"
                ],
                "summary": "Issue a signed calendar feed URL",
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateFeedRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/feeds/{kind}/{file}": {
            "get": {
                "tags": [
                    "Feeds"
                ],
                "summary": "Serve a signed iCalendar feed",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "name": "kind",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "file",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "{id}.ics"
                    },
                    {
                        "name": "expires",
                        "in": "query",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "name": "signature",
                        "in": "query",
                        "required": true,
                        "type": "string"
                    }
                ]
            }
        },
        "/lesson-assignments/{id}/replace": {
            "post": {
                "tags": [
                    "Lesson Assignments"
                ],
                "summary": "Replace",
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/MoveAssignmentRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/teacher-assignments/{id}/replace": {
            "post": {
                "tags": [
                    "Teacher Assignments"
                ],
                "summary": "Replace",
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/MoveAssignmentRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/lesson-assignments/{id}/cancel": {
            "post": {
                "tags": [
                    "Lesson Assignments"
                ],
                "summary": "Cancel",
                "responses": {
                    "204": {
                        "description": "No Content"
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/teacher-assignments/{id}/cancel": {
            "post": {
                "tags": [
                    "Teacher Assignments"
                ],
                "summary": "Cancel",
                "responses": {
                    "204": {
                        "description": "No Content"
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/lesson-assignments/{id}/continue": {
            "post": {
                "tags": [
                    "Lesson Assignments"
                ],
                "summary": "Continue",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/teacher-assignments/{id}/continue": {
            "post": {
                "tags": [
                    "Teacher Assignments"
                ],
                "summary": "Continue",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/lesson-assignments/{id}/change-next-year": {
            "post": {
                "tags": [
                    "Lesson Assignments"
                ],
                "summary": "Change next year",
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/MoveAssignmentRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/teacher-assignments/{id}/change-next-year": {
            "post": {
                "tags": [
                    "Teacher Assignments"
                ],
                "summary": "Change next year",
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/MoveAssignmentRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/lesson-assignments/{id}/end": {
            "post": {
                "tags": [
                    "Lesson Assignments"
                ],
                "summary": "End",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/teacher-assignments/{id}/end": {
            "post": {
                "tags": [
                    "Teacher Assignments"
                ],
                "summary": "End",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        }
    },
    "definitions": {
        "SlotPair": {
            "type": "object",
            "properties": {
                "cell_id": {
                    "type": "integer"
                },
                "slot": {
                    "type": "integer"
                },
                "ref_id": {
                    "type": "integer"
                }
            },
            "required": [
                "cell_id"
            ]
        },
        "SaveSlotsRequest": {
            "type": "object",
            "properties": {
                "pairs": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/SlotPair"
                    }
                }
            },
            "required": [
                "pairs"
            ]
        },
        "SaveTemplateRequest": {
            "type": "object",
            "properties": {
                "year_tag": {
                    "type": "string"
                },
                "pairs": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/SlotPair"
                    }
                }
            },
            "required": [
                "year_tag",
                "pairs"
            ]
        },
        "InitializeTemplateRequest": {
            "type": "object",
            "properties": {
                "year_tag": {
                    "type": "string"
                }
            },
            "required": [
                "year_tag"
            ]
        },
        "RescheduleRequest": {
            "type": "object",
            "properties": {
                "date": {
                    "type": "string",
                    "format": "date"
                },
                "room": {
                    "type": "integer"
                },
                "timeslot": {
                    "type": "integer"
                },
                "occurrence_id": {
                    "type": "integer"
                },
                "intensive_assignment_id": {
                    "type": "integer"
                },
                "person_id": {
                    "type": "integer"
                },
                "subject": {
                    "type": "string"
                }
            },
            "required": [
                "date",
                "room",
                "timeslot"
            ]
        },
        "AddTeacherShiftRequest": {
            "type": "object",
            "properties": {
                "date": {
                    "type": "string",
                    "format": "date"
                },
                "room": {
                    "type": "integer"
                },
                "timeslot": {
                    "type": "integer"
                },
                "teacher_id": {
                    "type": "integer"
                }
            },
            "required": [
                "date",
                "room",
                "timeslot",
                "teacher_id"
            ]
        },
        "MarkAbsentRequest": {
            "type": "object",
            "properties": {
                "unauthorized": {
                    "type": "boolean"
                }
            }
        },
        "SetReportedRequest": {
            "type": "object",
            "properties": {
                "reported": {
                    "type": "boolean"
                }
            },
            "required": [
                "reported"
            ]
        },
        "CreateLessonAssignmentRequest": {
            "type": "object",
            "properties": {
                "person_id": {
                    "type": "integer"
                },
                "subject": {
                    "type": "string"
                },
                "weekday": {
                    "type": "integer"
                },
                "timeslot": {
                    "type": "integer"
                },
                "start_date": {
                    "type": "string",
                    "format": "date"
                },
                "end_date": {
                    "type": "string",
                    "format": "date"
                }
            },
            "required": [
                "person_id",
                "subject",
                "weekday",
                "timeslot",
                "start_date"
            ]
        },
        "CreateTeacherAssignmentRequest": {
            "type": "object",
            "properties": {
                "teacher_id": {
                    "type": "integer"
                },
                "weekday": {
                    "type": "integer"
                },
                "timeslot": {
                    "type": "integer"
                },
                "start_date": {
                    "type": "string",
                    "format": "date"
                },
                "end_date": {
                    "type": "string",
                    "format": "date"
                }
            },
            "required": [
                "teacher_id",
                "weekday",
                "timeslot",
                "start_date"
            ]
        },
        "MoveAssignmentRequest": {
            "type": "object",
            "properties": {
                "weekday": {
                    "type": "integer"
                },
                "timeslot": {
                    "type": "integer"
                }
            },
            "required": [
                "weekday",
                "timeslot"
            ]
        },
        "DeclareClosureRequest": {
            "type": "object",
            "properties": {
                "date": {
                    "type": "string",
                    "format": "date"
                },
                "title": {
                    "type": "string"
                }
            },
            "required": [
                "date",
                "title"
            ]
        },
        "CreateIntensivePeriodRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "start_date": {
                    "type": "string",
                    "format": "date"
                },
                "end_date": {
                    "type": "string",
                    "format": "date"
                },
                "extended": {
                    "type": "boolean"
                }
            },
            "required": [
                "name",
                "start_date",
                "end_date"
            ]
        },
        "CreateIntensiveAssignmentRequest": {
            "type": "object",
            "properties": {
                "person_id": {
                    "type": "integer"
                },
                "subject": {
                    "type": "string"
                },
                "quota": {
                    "type": "integer"
                }
            },
            "required": [
                "person_id",
                "subject"
            ]
        },
        "AvailabilityToggle": {
            "type": "object",
            "properties": {
                "date": {
                    "type": "string",
                    "format": "date"
                },
                "timeslot": {
                    "type": "integer"
                },
                "available": {
                    "type": "boolean"
                }
            },
            "required": [
                "date",
                "timeslot"
            ]
        },
        "UpdatePersonRequestsRequest": {
            "type": "object",
            "properties": {
                "person_id": {
                    "type": "integer"
                },
                "toggles": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/AvailabilityToggle"
                    }
                }
            },
            "required": [
                "person_id",
                "toggles"
            ]
        },
        "UpdateTeacherRequestsRequest": {
            "type": "object",
            "properties": {
                "teacher_id": {
                    "type": "integer"
                },
                "toggles": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/AvailabilityToggle"
                    }
                }
            },
            "required": [
                "teacher_id",
                "toggles"
            ]
        },
        "CreateFeedRequest": {
            "type": "object",
            "properties": {
                "kind": {
                    "type": "string"
                },
                "id": {
                    "type": "integer"
                }
            },
            "required": [
                "kind",
                "id"
            ]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {
                    "type": "integer"
                },
                "page_size": {
                    "type": "integer"
                },
                "total_count": {
                    "type": "integer"
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "pagination": {
                    "$ref": "#/definitions/Pagination"
                },
                "meta": {
                    "type": "object"
                }
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
