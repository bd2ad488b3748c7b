// Package docs 接口文档，可通过 swag init -g cmd/api-gateway/main.go 重新生成
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
		"/api/admin/admins": {
			"post": {
				"summary": "创建操作员",
				"tags": [
					"管理-账号"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"Bearer": []
					}
				],
				"parameters": [
					{
						"description": "请求参数",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			},
			"get": {
				"summary": "操作员列表",
				"tags": [
					"管理-账号"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"Bearer": []
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			}
		},
		"/api/admin/admins/{id}/status": {
			"put": {
				"summary": "启用或禁用操作员",
				"tags": [
					"管理-账号"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"Bearer": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "操作员ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "请求参数",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			}
		},
		"/api/admin/auth/login": {
			"post": {
				"summary": "管理员登录",
				"tags": [
					"管理员认证"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "请求参数",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			}
		},
		"/api/admin/auth/logout": {
			"post": {
				"summary": "管理员退出登录",
				"tags": [
					"管理员认证"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"Bearer": []
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			}
		},
		"/api/admin/auth/me": {
			"get": {
				"summary": "获取当前管理员信息",
				"tags": [
					"管理员认证"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"Bearer": []
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			}
		},
		"/api/admin/auth/password": {
			"put": {
				"summary": "修改管理员密码",
				"tags": [
					"管理员认证"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"Bearer": []
					}
				],
				"parameters": [
					{
						"description": "请求参数",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			}
		},
		"/api/admin/auth/refresh": {
			"post": {
				"summary": "刷新管理员 Token",
				"tags": [
					"管理员认证"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "请求参数",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			}
		},
		"/api/admin/bookings": {
			"get": {
				"summary": "预订列表（管理端）",
				"tags": [
					"管理-预订"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"Bearer": []
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			}
		},
		"/api/admin/bookings/check-in": {
			"post": {
				"summary": "扫码登记到店",
				"tags": [
					"管理-预订"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"Bearer": []
					}
				],
				"parameters": [
					{
						"description": "请求参数",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			}
		},
		"/api/admin/bookings/stream": {
			"get": {
				"summary": "预订事件实时推送（WebSocket）",
				"tags": [
					"管理-预订"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"Bearer": []
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			}
		},
		"/api/admin/bookings/{id}": {
			"get": {
				"summary": "预订详情（管理端）",
				"tags": [
					"管理-预订"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"Bearer": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			}
		},
		"/api/admin/bookings/{id}/arrival": {
			"put": {
				"summary": "更新到店状态",
				"tags": [
					"管理-预订"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"Bearer": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "请求参数",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			}
		},
		"/api/admin/bookings/{id}/cancel": {
			"post": {
				"summary": "取消预订（管理端）",
				"tags": [
					"管理-预订"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"Bearer": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			}
		},
		"/api/admin/bookings/{id}/status": {
			"put": {
				"summary": "更新预订状态",
				"tags": [
					"管理-预订"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"Bearer": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "请求参数",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			}
		},
		"/api/admin/dashboard/stats": {
			"get": {
				"summary": "获取运营统计",
				"tags": [
					"管理-仪表盘"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"Bearer": []
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			}
		},
		"/api/admin/rooms": {
			"get": {
				"summary": "房间列表（管理端）",
				"tags": [
					"管理-房间"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"Bearer": []
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			},
			"post": {
				"summary": "创建房间",
				"tags": [
					"管理-房间"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"Bearer": []
					}
				],
				"parameters": [
					{
						"description": "请求参数",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			}
		},
		"/api/admin/rooms/{id}": {
			"put": {
				"summary": "更新房间",
				"tags": [
					"管理-房间"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"Bearer": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "请求参数",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			},
			"delete": {
				"summary": "删除房间",
				"tags": [
					"管理-房间"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"Bearer": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			}
		},
		"/api/admin/rooms/{id}/photo": {
			"post": {
				"summary": "上传房间照片",
				"tags": [
					"管理-房间"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"Bearer": []
					}
				],
				"consumes": [
					"multipart/form-data"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "file",
						"description": "照片文件",
						"name": "file",
						"in": "formData",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			}
		},
		"/api/admin/rooms/{id}/status": {
			"put": {
				"summary": "更新房间状态",
				"tags": [
					"管理-房间"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"Bearer": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "请求参数",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			}
		},
		"/api/v1/auth/login": {
			"post": {
				"summary": "邮箱密码登录",
				"tags": [
					"认证"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "请求参数",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			}
		},
		"/api/v1/auth/refresh": {
			"post": {
				"summary": "刷新令牌",
				"tags": [
					"认证"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "请求参数",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			}
		},
		"/api/v1/auth/register": {
			"post": {
				"summary": "住客注册",
				"tags": [
					"认证"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "请求参数",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			}
		},
		"/api/v1/bookings": {
			"post": {
				"summary": "创建预订",
				"tags": [
					"预订"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"Bearer": []
					}
				],
				"parameters": [
					{
						"description": "请求参数",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			},
			"get": {
				"summary": "获取我的预订列表",
				"tags": [
					"预订"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"Bearer": []
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			}
		},
		"/api/v1/bookings/{id}": {
			"get": {
				"summary": "获取预订详情",
				"tags": [
					"预订"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"Bearer": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			}
		},
		"/api/v1/bookings/{id}/cancel": {
			"post": {
				"summary": "取消预订",
				"tags": [
					"预订"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"Bearer": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			}
		},
		"/api/v1/bookings/{id}/qrcode": {
			"get": {
				"summary": "获取预订凭证二维码",
				"tags": [
					"预订"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"Bearer": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			}
		},
		"/api/v1/rooms": {
			"get": {
				"summary": "房间列表",
				"tags": [
					"房间"
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			}
		},
		"/api/v1/rooms/available": {
			"get": {
				"summary": "查询可预订房间",
				"tags": [
					"房间"
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			}
		},
		"/api/v1/rooms/{id}": {
			"get": {
				"summary": "房间详情",
				"tags": [
					"房间"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			}
		},
		"/api/v1/rooms/{id}/availability": {
			"get": {
				"summary": "查询房间可用性",
				"tags": [
					"房间"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			}
		},
		"/api/v1/rooms/{id}/reviews": {
			"get": {
				"summary": "房间评价列表",
				"tags": [
					"评价"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			},
			"post": {
				"summary": "发表房间评价",
				"tags": [
					"评价"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"Bearer": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "请求参数",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			}
		},
		"/api/v1/user/profile": {
			"get": {
				"summary": "获取个人资料",
				"tags": [
					"用户"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"Bearer": []
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			},
			"put": {
				"summary": "更新个人资料",
				"tags": [
					"用户"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"Bearer": []
					}
				],
				"parameters": [
					{
						"description": "请求参数",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					}
				}
			}
		}
	},
	"definitions": {
		"response.Response": {
			"type": "object",
			"properties": {
				"code": {
					"type": "integer"
				},
				"data": {},
				"message": {
					"type": "string"
				},
				"request_id": {
					"type": "string"
				}
			}
		}
	},
	"securityDefinitions": {
		"Bearer": {
			"description": "Bearer {token}",
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		}
	}
}`

// SwaggerInfo 接口文档元信息
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Hotel Booking API",
	Description:      "酒店客房预订服务接口",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
