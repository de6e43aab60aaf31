package services

import (
	"encoding/json"
	"errors"
)

// LegacyPeer 旧版整簿同步文档中的设备
type LegacyPeer struct {
	ID       string   `json:"id"`
	Hash     string   `json:"hash"`
	Username string   `json:"username"`
	Hostname string   `json:"hostname"`
	Platform string   `json:"platform"`
	Alias    string   `json:"alias"`
	Tags     []string `json:"tags"`
}

// LegacyDocument 旧版整簿同步文档的结构化表示。
// 线上格式中 tag_colors 是一个再次序列化成字符串的 JSON 对象，只在编解码时处理
type LegacyDocument struct {
	Tags      []string
	Peers     []LegacyPeer
	TagColors map[string]int64
}

type legacyWire struct {
	Tags      []string     `json:"tags"`
	Peers     []LegacyPeer `json:"peers"`
	TagColors string       `json:"tag_colors"`
}

// legacyUpload 上传文档，三个字段都必须出现
type legacyUpload struct {
	Tags      *[]string     `json:"tags"`
	Peers     *[]LegacyPeer `json:"peers"`
	TagColors *string       `json:"tag_colors"`
}

var errIncompleteDocument = errors.New("tags, peers and tag_colors are required")

// EncodeLegacyDocument 序列化为客户端期望的字符串
func EncodeLegacyDocument(doc *LegacyDocument) (string, error) {
	colors := doc.TagColors
	if colors == nil {
		colors = map[string]int64{}
	}
	colorBytes, err := json.Marshal(colors)
	if err != nil {
		return "", err
	}

	wire := legacyWire{
		Tags:      nonNil(doc.Tags),
		Peers:     make([]LegacyPeer, 0, len(doc.Peers)),
		TagColors: string(colorBytes),
	}
	for _, peer := range doc.Peers {
		peer.Tags = nonNil(peer.Tags)
		wire.Peers = append(wire.Peers, peer)
	}

	data, err := json.Marshal(wire)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeLegacyDocument 解析客户端上传的文档。外层格式错误、顶层为 null
// 或缺少 tags / peers / tag_colors 任一字段时返回 error；
// tag_colors 内容无法解析时退化为空映射，所有标签使用默认颜色
func DecodeLegacyDocument(data string) (*LegacyDocument, error) {
	var wire *legacyUpload
	if err := json.Unmarshal([]byte(data), &wire); err != nil {
		return nil, err
	}
	if wire == nil || wire.Tags == nil || wire.Peers == nil || wire.TagColors == nil {
		return nil, errIncompleteDocument
	}

	colors := map[string]int64{}
	if *wire.TagColors != "" {
		if err := json.Unmarshal([]byte(*wire.TagColors), &colors); err != nil {
			colors = map[string]int64{}
		}
	}

	return &LegacyDocument{
		Tags:      *wire.Tags,
		Peers:     *wire.Peers,
		TagColors: colors,
	}, nil
}

// ColorOf 返回标签颜色，未指定时为默认颜色
func (d *LegacyDocument) ColorOf(name string, fallback int64) int64 {
	if color, ok := d.TagColors[name]; ok {
		return color
	}
	return fallback
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
