package rest

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/ghodss/yaml"
	"github.com/go-chi/chi/v5"
)

//NewOpenAPI3 instantiates the OpenAPI specification for this service.
func NewOpenAPI3() openapi3.T {
	swagger := openapi3.T{
		OpenAPI: "3.0.0",
		Info: &openapi3.Info{
			Title:       "Tasks REST API",
			Description: "REST API used for creating, assigning and browsing tasks with document attachments",
			Version:     "0.1.0",
			Contact: &openapi3.Contact{
				URL: "https://github.com/taksyapp/tasks-api",
			},
		},
		Servers: openapi3.Servers{
			&openapi3.Server{
				Description: "Local development",
				URL:         "http://0.0.0.0:9234",
			},
		},
	}

	swagger.Components = &openapi3.Components{
		SecuritySchemes: openapi3.SecuritySchemes{
			"bearerAuth": &openapi3.SecuritySchemeRef{
				Value: openapi3.NewJWTSecurityScheme(),
			},
		},
		Schemas: openapi3.Schemas{
			"UserRef": openapi3.NewSchemaRef("",
				openapi3.NewObjectSchema().
					WithProperty("id", openapi3.NewStringSchema()).
					WithProperty("email", openapi3.NewStringSchema())),
			"Task": openapi3.NewSchemaRef("",
				openapi3.NewObjectSchema().
					WithProperty("id", openapi3.NewStringSchema()).
					WithProperty("title", openapi3.NewStringSchema()).
					WithProperty("description", openapi3.NewStringSchema()).
					WithProperty("status", openapi3.NewStringSchema().WithEnum("pending", "in-progress", "completed")).
					WithProperty("priority", openapi3.NewStringSchema().WithEnum("low", "medium", "high")).
					WithProperty("dueDate", openapi3.NewStringSchema().WithFormat("date-time")).
					WithPropertyRef("assignedTo", openapi3.NewSchemaRef("#/components/schemas/UserRef", nil)).
					WithPropertyRef("createdBy", openapi3.NewSchemaRef("#/components/schemas/UserRef", nil)).
					WithProperty("documents", openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema())).
					WithProperty("createdAt", openapi3.NewStringSchema().WithFormat("date-time")).
					WithProperty("updatedAt", openapi3.NewStringSchema().WithFormat("date-time"))),
			"Session": openapi3.NewSchemaRef("",
				openapi3.NewObjectSchema().
					WithProperty("id", openapi3.NewStringSchema()).
					WithProperty("email", openapi3.NewStringSchema()).
					WithProperty("role", openapi3.NewStringSchema().WithEnum("user", "admin")).
					WithProperty("token", openapi3.NewStringSchema())),
			"ErrorResponse": openapi3.NewSchemaRef("",
				openapi3.NewObjectSchema().
					WithProperty("error", openapi3.NewStringSchema())),
		},
		RequestBodies: openapi3.RequestBodies{
			"CredentialsRequest": &openapi3.RequestBodyRef{
				Value: openapi3.NewRequestBody().
					WithDescription("Request used for registering and logging in").
					WithRequired(true).
					WithJSONSchema(openapi3.NewObjectSchema().
						WithProperty("email", openapi3.NewStringSchema().WithFormat("email")).
						WithProperty("password", openapi3.NewStringSchema().WithMinLength(6))),
			},
		},
		Responses: openapi3.Responses{
			"ErrorResponse": &openapi3.ResponseRef{
				Value: openapi3.NewResponse().
					WithDescription("Response when an error happens").
					WithJSONSchemaRef(openapi3.NewSchemaRef("#/components/schemas/ErrorResponse", nil)),
			},
			"SessionResponse": &openapi3.ResponseRef{
				Value: openapi3.NewResponse().
					WithDescription("Response returned back after registering or logging in").
					WithJSONSchemaRef(openapi3.NewSchemaRef("#/components/schemas/Session", nil)),
			},
			"TaskResponse": &openapi3.ResponseRef{
				Value: openapi3.NewResponse().
					WithDescription("Response returned back for a single task").
					WithJSONSchemaRef(openapi3.NewSchemaRef("#/components/schemas/Task", nil)),
			},
			"ListTasksResponse": &openapi3.ResponseRef{
				Value: openapi3.NewResponse().
					WithDescription("Response returned back when listing tasks").
					WithJSONSchemaRef(openapi3.NewSchemaRef("",
						openapi3.NewObjectSchema().
							WithProperty("total", openapi3.NewInt64Schema()).
							WithProperty("page", openapi3.NewInt64Schema()).
							WithPropertyRef("tasks", openapi3.NewSchemaRef("",
								&openapi3.Schema{
									Type:  openapi3.TypeArray,
									Items: openapi3.NewSchemaRef("#/components/schemas/Task", nil),
								})))),
			},
		},
	}

	swagger.Paths = openapi3.Paths{
		"/api/auth/register": &openapi3.PathItem{
			Post: &openapi3.Operation{
				OperationID: "Register",
				RequestBody: &openapi3.RequestBodyRef{
					Ref: "#/components/requestBodies/CredentialsRequest",
				},
				Responses: openapi3.Responses{
					"201": &openapi3.ResponseRef{Ref: "#/components/responses/SessionResponse"},
					"400": &openapi3.ResponseRef{Ref: "#/components/responses/ErrorResponse"},
				},
			},
		},
		"/api/auth/login": &openapi3.PathItem{
			Post: &openapi3.Operation{
				OperationID: "Login",
				RequestBody: &openapi3.RequestBodyRef{
					Ref: "#/components/requestBodies/CredentialsRequest",
				},
				Responses: openapi3.Responses{
					"200": &openapi3.ResponseRef{Ref: "#/components/responses/SessionResponse"},
					"401": &openapi3.ResponseRef{Ref: "#/components/responses/ErrorResponse"},
				},
			},
		},
		"/api/tasks": &openapi3.PathItem{
			Get: &openapi3.Operation{
				OperationID: "ListTasks",
				Parameters: openapi3.Parameters{
					&openapi3.ParameterRef{Value: openapi3.NewQueryParameter("status").WithSchema(openapi3.NewStringSchema())},
					&openapi3.ParameterRef{Value: openapi3.NewQueryParameter("priority").WithSchema(openapi3.NewStringSchema())},
					&openapi3.ParameterRef{Value: openapi3.NewQueryParameter("sortBy").WithSchema(openapi3.NewStringSchema().WithEnum("dueDate", "priority", "status"))},
					&openapi3.ParameterRef{Value: openapi3.NewQueryParameter("page").WithSchema(openapi3.NewInt64Schema())},
					&openapi3.ParameterRef{Value: openapi3.NewQueryParameter("limit").WithSchema(openapi3.NewInt64Schema())},
				},
				Responses: openapi3.Responses{
					"200": &openapi3.ResponseRef{Ref: "#/components/responses/ListTasksResponse"},
					"401": &openapi3.ResponseRef{Ref: "#/components/responses/ErrorResponse"},
				},
			},
			Post: &openapi3.Operation{
				OperationID: "CreateTask",
				Responses: openapi3.Responses{
					"201": &openapi3.ResponseRef{Ref: "#/components/responses/TaskResponse"},
					"400": &openapi3.ResponseRef{Ref: "#/components/responses/ErrorResponse"},
					"401": &openapi3.ResponseRef{Ref: "#/components/responses/ErrorResponse"},
					"403": &openapi3.ResponseRef{Ref: "#/components/responses/ErrorResponse"},
				},
			},
		},
		"/api/tasks/{id}": &openapi3.PathItem{
			Get: &openapi3.Operation{
				OperationID: "ReadTask",
				Parameters: openapi3.Parameters{
					&openapi3.ParameterRef{Value: openapi3.NewPathParameter("id").WithSchema(openapi3.NewStringSchema())},
				},
				Responses: openapi3.Responses{
					"200": &openapi3.ResponseRef{Ref: "#/components/responses/TaskResponse"},
					"404": &openapi3.ResponseRef{Ref: "#/components/responses/ErrorResponse"},
				},
			},
			Patch: &openapi3.Operation{
				OperationID: "UpdateTask",
				Parameters: openapi3.Parameters{
					&openapi3.ParameterRef{Value: openapi3.NewPathParameter("id").WithSchema(openapi3.NewStringSchema())},
				},
				Responses: openapi3.Responses{
					"200": &openapi3.ResponseRef{Ref: "#/components/responses/TaskResponse"},
					"404": &openapi3.ResponseRef{Ref: "#/components/responses/ErrorResponse"},
				},
			},
			Delete: &openapi3.Operation{
				OperationID: "DeleteTask",
				Parameters: openapi3.Parameters{
					&openapi3.ParameterRef{Value: openapi3.NewPathParameter("id").WithSchema(openapi3.NewStringSchema())},
				},
				Responses: openapi3.Responses{
					"200": &openapi3.ResponseRef{Ref: "#/components/responses/TaskResponse"},
					"404": &openapi3.ResponseRef{Ref: "#/components/responses/ErrorResponse"},
				},
			},
		},
		"/api/tasks/user/{userId}": &openapi3.PathItem{
			Get: &openapi3.Operation{
				OperationID: "UserTasks",
				Parameters: openapi3.Parameters{
					&openapi3.ParameterRef{Value: openapi3.NewPathParameter("userId").WithSchema(openapi3.NewStringSchema())},
				},
				Responses: openapi3.Responses{
					"200": &openapi3.ResponseRef{Ref: "#/components/responses/ListTasksResponse"},
					"401": &openapi3.ResponseRef{Ref: "#/components/responses/ErrorResponse"},
				},
			},
		},
	}

	swagger.Security = *openapi3.NewSecurityRequirements().With(
		openapi3.NewSecurityRequirement().Authenticate("bearerAuth"))

	return swagger
}

//RegisterOpenAPI connects the specification handlers to the router.
func RegisterOpenAPI(r chi.Router) {
	swagger := NewOpenAPI3()

	r.Get("/openapi3.json", func(w http.ResponseWriter, _ *http.Request) {
		renderResponse(w, &swagger, http.StatusOK)
	})

	r.Get("/openapi3.yaml", func(w http.ResponseWriter, _ *http.Request) {
		data, err := yaml.Marshal(&swagger)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/x-yaml")
		_, _ = w.Write(data)
	})
}
