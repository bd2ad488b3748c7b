// Package handler HTTP 处理器，按业务划分子包：
//
//	auth   住客注册、登录与个人资料
//	hotel  房间查询、可用性、预订与评价
//	admin  运营后台（操作员、房间、预订、统计）
//
// 接口文档注释由 swag init 扫描生成 docs 包。
package handler
