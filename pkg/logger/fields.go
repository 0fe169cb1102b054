package logger

// 统一的日志字段命名常量
// 用于确保整个项目中日志字段命名的一致性，便于日志查询和分析
const (
	// FieldUID 用户 ID 字段
	FieldUID = "uid"

	// FieldEntityID 实体 ID 字段
	FieldEntityID = "entityId"

	// FieldEntityType 实体类型字段（note / folder）
	FieldEntityType = "entityType"

	// FieldAction 操作类型字段
	FieldAction = "action"

	// FieldAttempts 重试次数字段
	FieldAttempts = "attempts"

	// FieldCollection 本地集合名称字段
	FieldCollection = "collection"

	// FieldCount 数量字段
	FieldCount = "count"

	// FieldOnline 在线状态字段
	FieldOnline = "online"

	// FieldDuration 耗时字段
	FieldDuration = "duration"

	// FieldMethod 方法名称字段
	FieldMethod = "method"

	// FieldPath 文件路径字段
	FieldPath = "path"

	// FieldDeviceID 设备 ID 字段
	FieldDeviceID = "deviceId"

	// FieldError 错误信息字段
	FieldError = "error"
)
