package code

var (
	Success = NewSuss(200, lang{en: "Operation Success", zh_cn: "操作成功"})

	ErrorServerInternal = NewError(500, lang{en: "Internal error", zh_cn: "内部错误"})
	ErrorInvalidParams  = NewError(400, lang{en: "Invalid params", zh_cn: "参数错误"})
	ErrorUserNotReady   = NewError(401, lang{en: "No signed-in user", zh_cn: "用户未登录"})

	// 实体
	ErrorNoteNotFound   = NewError(40401, lang{en: "Note not found", zh_cn: "笔记不存在"})
	ErrorFolderNotFound = NewError(40402, lang{en: "Folder not found", zh_cn: "文件夹不存在"})
	ErrorSystemFolder   = NewError(40301, lang{en: "System folders cannot be modified", zh_cn: "系统文件夹不可修改"})

	// 远端
	ErrorRemoteUnreachable = NewError(50201, lang{en: "Remote store unreachable", zh_cn: "远端存储不可达"})
	ErrorRemoteRejected    = NewError(50202, lang{en: "Remote store rejected the request", zh_cn: "远端存储拒绝了请求"})

	// 乐观更新失败提示
	ErrorNoteCreateFailed   = NewError(50301, lang{en: "Failed to create note", zh_cn: "创建笔记失败"})
	ErrorNoteUpdateFailed   = NewError(50302, lang{en: "Failed to update note", zh_cn: "更新笔记失败"})
	ErrorNoteDeleteFailed   = NewError(50303, lang{en: "Failed to delete note", zh_cn: "删除笔记失败"})
	ErrorNoteRestoreFailed  = NewError(50304, lang{en: "Failed to restore note", zh_cn: "恢复笔记失败"})
	ErrorNoteImportFailed   = NewError(50305, lang{en: "Failed to import note", zh_cn: "导入笔记失败"})
	ErrorFolderCreateFailed = NewError(50311, lang{en: "Failed to create folder", zh_cn: "创建文件夹失败"})
	ErrorFolderUpdateFailed = NewError(50312, lang{en: "Failed to update folder", zh_cn: "更新文件夹失败"})
	ErrorFolderDeleteFailed = NewError(50313, lang{en: "Failed to delete folder", zh_cn: "删除文件夹失败"})

	// 同步
	ErrorSyncFailed     = NewError(50401, lang{en: "Sync failed", zh_cn: "同步失败"})
	ErrorUnknownChange  = NewError(50402, lang{en: "Unknown pending change", zh_cn: "未知的待同步变更"})
	ErrorSyncOpRetrying = NewError(50403, lang{en: "Pending change keeps failing to sync", zh_cn: "待同步变更多次同步失败"})

	// 本地存储（仅记录日志）
	ErrorLocalStore = NewError(50501, lang{en: "Local store failure", zh_cn: "本地存储失败"})

	// 提示（非致命）
	NoticeUsingCachedData = NewError(30001, lang{en: "Using cached data", zh_cn: "正在使用缓存数据"})
)
