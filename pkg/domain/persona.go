package domain

import "bytes"

// Persona は、キャラクターの外見を全ページで一貫させるための参照ポートレートです。
// 生成後は変更されず、ひとつのストーリーセッションの間だけ保持されます。
type Persona struct {
	imageData   []byte
	mimeType    string
	description string
}

// NewPersona は画像データをコピーして Persona を作成します。
func NewPersona(imageData []byte, mimeType, description string) *Persona {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return &Persona{
		imageData:   bytes.Clone(imageData),
		mimeType:    mimeType,
		description: description,
	}
}

// ImageData は参照画像のコピーを返します。
func (p *Persona) ImageData() []byte {
	if p == nil {
		return nil
	}
	return bytes.Clone(p.imageData)
}

func (p *Persona) MimeType() string {
	if p == nil {
		return ""
	}
	return p.mimeType
}

func (p *Persona) Description() string {
	if p == nil {
		return ""
	}
	return p.description
}

// HasImage は参照画像を持っているかを返します。
func (p *Persona) HasImage() bool {
	return p != nil && len(p.imageData) > 0
}
