package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Content 是一轮对话的内容，只有两种形态：PlainText 或 Parts。
type Content interface {
	isContent()
}

// PlainText 是单个文本值形式的内容。
type PlainText string

// Parts 是带类型片段序列形式的内容。除 text 片段外，其余片段对本服务不透明。
type Parts []Part

func (PlainText) isContent() {}
func (Parts) isContent()     {}

// PartTypeText 是文本片段的类型标记。
const PartTypeText = "text"

// Part 是结构化内容中的一个片段。Raw 保留原始 JSON，以便把不透明片段原样传回。
type Part struct {
	Type string
	Text string
	Raw  json.RawMessage
}

// UnmarshalJSON 只解析 type 与 text，其余字段保留在 Raw 中。
func (p *Part) UnmarshalJSON(data []byte) error {
	var head struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	p.Type = head.Type
	p.Text = head.Text
	p.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON 优先输出原始 JSON。
func (p Part) MarshalJSON() ([]byte, error) {
	if len(p.Raw) > 0 {
		return p.Raw, nil
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	}{p.Type, p.Text})
}

// ExtractText 返回内容中的纯文本部分：PlainText 原样返回，Parts 取第一个 text 片段。
func ExtractText(c Content) string {
	switch v := c.(type) {
	case PlainText:
		return string(v)
	case Parts:
		for _, part := range v {
			if part.Type == PartTypeText {
				return part.Text
			}
		}
	}
	return ""
}

// ChatTurn 是客户端随请求提交的一条历史消息。
type ChatTurn struct {
	Role    Role    `validate:"required,oneof=user assistant system"`
	Content Content `validate:"-"`
}

type chatTurnWire struct {
	Role    Role            `json:"role"`
	Content json.RawMessage `json:"content"`
}

// UnmarshalJSON 根据 content 的 JSON 形态选择 PlainText 或 Parts。
func (t *ChatTurn) UnmarshalJSON(data []byte) error {
	var wire chatTurnWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	t.Role = wire.Role
	t.Content = nil

	raw := bytes.TrimSpace(wire.Content)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		t.Content = PlainText(s)
	case '[':
		var parts Parts
		if err := json.Unmarshal(raw, &parts); err != nil {
			return err
		}
		t.Content = parts
	default:
		return fmt.Errorf("unsupported message content: %s", string(raw))
	}
	return nil
}

// MarshalJSON 与 UnmarshalJSON 对称。
func (t ChatTurn) MarshalJSON() ([]byte, error) {
	var content interface{}
	switch v := t.Content.(type) {
	case PlainText:
		content = string(v)
	case Parts:
		content = []Part(v)
	}
	return json.Marshal(struct {
		Role    Role        `json:"role"`
		Content interface{} `json:"content"`
	}{t.Role, content})
}

// Text 是 ExtractText(t.Content) 的简写。
func (t ChatTurn) Text() string {
	return ExtractText(t.Content)
}
