// Package docs holds the OpenAPI document served at /swagger.
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
        "/health": {
            "get": {
                "tags": [
                    "health"
                ],
                "summary": "Liveness probe",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/health/ready": {
            "get": {
                "tags": [
                    "health"
                ],
                "summary": "Readiness probe",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "503": {
                        "description": "A dependency is down"
                    }
                }
            }
        },
        "/v1/users/signup": {
            "post": {
                "tags": [
                    "users"
                ],
                "summary": "Sign up the authenticated caller",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Request body",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/services.SignupRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/services.SignupResponse"
                        }
                    },
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/services.SignupResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/common.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/common.ErrorResponse"
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
        "/v1/users/{id}": {
            "get": {
                "tags": [
                    "users"
                ],
                "summary": "Get a user",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "User UUID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/services.UserResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/common.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "patch": {
                "tags": [
                    "users"
                ],
                "summary": "Update user demographics",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "User UUID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Request body",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/services.UpdateDemographicsRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/services.DemographicsResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/common.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/common.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Persistence or rollback failure",
                        "schema": {
                            "$ref": "#/definitions/common.ErrorResponse"
                        }
                    },
                    "502": {
                        "description": "Identity provider failure",
                        "schema": {
                            "$ref": "#/definitions/common.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "delete": {
                "tags": [
                    "users"
                ],
                "summary": "Delete a user",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "User UUID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/common.ErrorResponse"
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
        "/v1/users/{id}/businesses": {
            "get": {
                "tags": [
                    "users"
                ],
                "summary": "List the businesses a user belongs to",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "User UUID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/services.BusinessResponse"
                            }
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
        "/v1/businesses": {
            "post": {
                "tags": [
                    "businesses"
                ],
                "summary": "Create a business",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Request body",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/services.CreateBusinessRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/services.BusinessResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/common.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Owner not found",
                        "schema": {
                            "$ref": "#/definitions/common.ErrorResponse"
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
        "/v1/businesses/{id}": {
            "get": {
                "tags": [
                    "businesses"
                ],
                "summary": "Get a business",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Business UUID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/services.BusinessResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/common.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "put": {
                "tags": [
                    "businesses"
                ],
                "summary": "Replace business information",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Business UUID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Request body",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/services.UpdateBusinessRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/services.BusinessResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/common.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/common.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "delete": {
                "tags": [
                    "businesses"
                ],
                "summary": "Delete a business",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Business UUID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/common.ErrorResponse"
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
        "/v1/businesses/{id}/inventory-items": {
            "get": {
                "tags": [
                    "inventory"
                ],
                "summary": "List a business's inventory",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Business UUID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/services.InventoryItemResponse"
                            }
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "post": {
                "tags": [
                    "inventory"
                ],
                "summary": "Add an inventory item",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Business UUID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Request body",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/services.InventoryItemRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/services.InventoryItemResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/common.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Business not found",
                        "schema": {
                            "$ref": "#/definitions/common.ErrorResponse"
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
        "/v1/inventory-items/{id}": {
            "get": {
                "tags": [
                    "inventory"
                ],
                "summary": "Get an inventory item",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Inventory item UUID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/services.InventoryItemResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/common.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "put": {
                "tags": [
                    "inventory"
                ],
                "summary": "Replace an inventory item",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Inventory item UUID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Request body",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/services.InventoryItemRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/services.InventoryItemResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/common.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/common.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "delete": {
                "tags": [
                    "inventory"
                ],
                "summary": "Delete an inventory item",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Inventory item UUID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/common.ErrorResponse"
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
        "/v1/inventory-items/{id}/image": {
            "get": {
                "tags": [
                    "inventory"
                ],
                "summary": "Get an item image",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Inventory item UUID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "302": {
                        "description": "Redirect to a presigned URL"
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/common.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "put": {
                "tags": [
                    "inventory"
                ],
                "summary": "Upload an item image",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "multipart/form-data"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Inventory item UUID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "file",
                        "description": "Image file",
                        "name": "image",
                        "in": "formData",
                        "required": true
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/common.ErrorResponse"
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
        "/v1/jobs": {
            "get": {
                "tags": [
                    "jobs"
                ],
                "summary": "List background jobs",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/background.JobStatus"
                            }
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
        "/v1/jobs/inventory-alerts": {
            "get": {
                "tags": [
                    "jobs"
                ],
                "summary": "Check inventory alerts",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "reorder or expiring",
                        "name": "kind",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "Expiry window, e.g. 72h",
                        "name": "window",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.inventoryAlertsResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/common.ErrorResponse"
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
        "/v1/jobs/{name}/run": {
            "post": {
                "tags": [
                    "jobs"
                ],
                "summary": "Trigger a background job now",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Job name",
                        "name": "name",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "202": {
                        "description": "Accepted"
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/common.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        }
    },
    "definitions": {
        "common.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "object",
                    "properties": {
                        "code": {
                            "type": "string"
                        },
                        "message": {
                            "type": "string"
                        },
                        "details": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "services.SignupRequest": {
            "type": "object",
            "properties": {
                "full_name": {
                    "type": "string"
                },
                "nickname": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "username": {
                    "type": "string"
                }
            }
        },
        "services.SignupResponse": {
            "type": "object",
            "properties": {
                "user_uuid": {
                    "type": "string"
                },
                "first_name": {
                    "type": "string"
                },
                "last_name": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "is_premium_member": {
                    "type": "boolean"
                }
            }
        },
        "services.UserResponse": {
            "type": "object",
            "properties": {
                "user_uuid": {
                    "type": "string"
                },
                "identity_ref": {
                    "type": "string"
                },
                "first_name": {
                    "type": "string"
                },
                "last_name": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "username": {
                    "type": "string"
                },
                "businesses": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "last_login": {
                    "type": "string"
                },
                "is_premium_member": {
                    "type": "boolean"
                },
                "is_deleted": {
                    "type": "boolean"
                }
            }
        },
        "services.UpdateDemographicsRequest": {
            "type": "object",
            "properties": {
                "first_name": {
                    "type": "string"
                },
                "last_name": {
                    "type": "string"
                },
                "email_address": {
                    "type": "string"
                }
            }
        },
        "services.DemographicsResponse": {
            "type": "object",
            "properties": {
                "first_name": {
                    "type": "string"
                },
                "last_name": {
                    "type": "string"
                },
                "email_address": {
                    "type": "string"
                }
            }
        },
        "services.AddressRequest": {
            "type": "object",
            "properties": {
                "street1": {
                    "type": "string"
                },
                "street2": {
                    "type": "string"
                },
                "city": {
                    "type": "string"
                },
                "state": {
                    "type": "string"
                },
                "postal_code": {
                    "type": "string"
                },
                "country": {
                    "type": "string"
                }
            }
        },
        "services.AddressResponse": {
            "type": "object",
            "properties": {
                "street1": {
                    "type": "string"
                },
                "street2": {
                    "type": "string"
                },
                "city": {
                    "type": "string"
                },
                "state": {
                    "type": "string"
                },
                "postal_code": {
                    "type": "string"
                },
                "country": {
                    "type": "string"
                }
            }
        },
        "services.CreateBusinessRequest": {
            "type": "object",
            "properties": {
                "business_owner_uuid": {
                    "type": "string"
                },
                "business_fullname": {
                    "type": "string"
                },
                "business_display_name": {
                    "type": "string"
                },
                "business_structure_type_id": {
                    "type": "integer"
                },
                "country_code": {
                    "type": "string"
                },
                "business_industry": {
                    "type": "string"
                },
                "address": {
                    "$ref": "#/definitions/services.AddressRequest"
                }
            }
        },
        "services.UpdateBusinessRequest": {
            "type": "object",
            "properties": {
                "business_fullname": {
                    "type": "string"
                },
                "business_display_name": {
                    "type": "string"
                },
                "business_structure_type_id": {
                    "type": "integer"
                },
                "country_code": {
                    "type": "string"
                },
                "business_industry": {
                    "type": "string"
                },
                "address": {
                    "$ref": "#/definitions/services.AddressRequest"
                }
            }
        },
        "services.BusinessResponse": {
            "type": "object",
            "properties": {
                "business_uuid": {
                    "type": "string"
                },
                "business_owner_uuid": {
                    "type": "string"
                },
                "business_fullname": {
                    "type": "string"
                },
                "business_display_name": {
                    "type": "string"
                },
                "business_structure_type_id": {
                    "type": "integer"
                },
                "country_code": {
                    "type": "string"
                },
                "business_industry": {
                    "type": "string"
                },
                "address": {
                    "$ref": "#/definitions/services.AddressResponse"
                },
                "is_deleted": {
                    "type": "boolean"
                }
            }
        },
        "services.InventoryItemRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "sku": {
                    "type": "string"
                },
                "cost_cents": {
                    "type": "integer"
                },
                "serial_number": {
                    "type": "string"
                },
                "purchase_date": {
                    "type": "string"
                },
                "supplier": {
                    "type": "string"
                },
                "brand": {
                    "type": "string"
                },
                "model": {
                    "type": "string"
                },
                "quantity": {
                    "type": "integer"
                },
                "reorder_quantity": {
                    "type": "integer"
                },
                "location": {
                    "type": "string"
                },
                "expiration_date": {
                    "type": "string"
                },
                "category": {
                    "type": "integer"
                },
                "custom_package_uuid": {
                    "type": "string"
                },
                "item_weight_g": {
                    "type": "integer"
                },
                "is_listed": {
                    "type": "boolean"
                },
                "is_lot": {
                    "type": "boolean"
                },
                "notes": {
                    "type": "string"
                }
            }
        },
        "services.InventoryItemResponse": {
            "type": "object",
            "properties": {
                "inventory_item_uuid": {
                    "type": "string"
                },
                "business_uuid": {
                    "type": "string"
                },
                "has_image": {
                    "type": "boolean"
                },
                "name": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "sku": {
                    "type": "string"
                },
                "cost_cents": {
                    "type": "integer"
                },
                "serial_number": {
                    "type": "string"
                },
                "purchase_date": {
                    "type": "string"
                },
                "supplier": {
                    "type": "string"
                },
                "brand": {
                    "type": "string"
                },
                "model": {
                    "type": "string"
                },
                "quantity": {
                    "type": "integer"
                },
                "reorder_quantity": {
                    "type": "integer"
                },
                "location": {
                    "type": "string"
                },
                "expiration_date": {
                    "type": "string"
                },
                "category": {
                    "type": "integer"
                },
                "custom_package_uuid": {
                    "type": "string"
                },
                "item_weight_g": {
                    "type": "integer"
                },
                "is_listed": {
                    "type": "boolean"
                },
                "is_lot": {
                    "type": "boolean"
                },
                "notes": {
                    "type": "string"
                }
            }
        },
        "background.JobStatus": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "last_run": {
                    "type": "string"
                },
                "next_run": {
                    "type": "string"
                }
            }
        },
        "jobs.InventoryAlert": {
            "type": "object",
            "properties": {
                "kind": {
                    "type": "string"
                },
                "business_uuid": {
                    "type": "string"
                },
                "inventory_item_uuid": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "quantity": {
                    "type": "integer"
                },
                "reorder_quantity": {
                    "type": "integer"
                },
                "expiration_date": {
                    "type": "string"
                }
            }
        },
        "handlers.inventoryAlertsResponse": {
            "type": "object",
            "properties": {
                "kind": {
                    "type": "string"
                },
                "alerts": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/jobs.InventoryAlert"
                    }
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Business Manager API",
	Description:      "Users, businesses and inventory for small-business owners.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
