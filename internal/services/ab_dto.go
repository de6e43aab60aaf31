package services

// 以下结构体的 JSON 形状由 RustDesk 客户端固定，不能随意修改

// PeerPayload 返回给客户端的设备信息
type PeerPayload struct {
	ID       string   `json:"id" binding:"required,max=100"`
	Hash     string   `json:"hash"`
	Username string   `json:"username"`
	Hostname string   `json:"hostname"`
	Platform string   `json:"platform"`
	Alias    string   `json:"alias"`
	Tags     []string `json:"tags"`
	Note     string   `json:"note"`
}

// PeerPatch 部分更新，nil 字段保持不变；Tags 非 nil 时整体替换标签
type PeerPatch struct {
	Hash     *string   `json:"hash"`
	Username *string   `json:"username"`
	Hostname *string   `json:"hostname"`
	Platform *string   `json:"platform"`
	Alias    *string   `json:"alias"`
	Note     *string   `json:"note"`
	Tags     *[]string `json:"tags"`
}

// TagPayload 返回给客户端的标签
type TagPayload struct {
	Name  string `json:"name"`
	Color int64  `json:"color"`
}

// AbProfile 地址簿概要
type AbProfile struct {
	GUID  string `json:"guid"`
	Name  string `json:"name"`
	Owner string `json:"owner"`
	Rule  int    `json:"rule"`
	Note  string `json:"note"`
}
