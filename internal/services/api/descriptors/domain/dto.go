// Package domain holds DTOs for descriptor http and service contracts
package domain

// ClassifyInput asks which whitelisted range contains an address
type ClassifyInput struct {
	IP string `json:"ip" validate:"required,ip4_addr" example:"95.163.1.10"`
}

// ClassifyOutput is the classification of one address
type ClassifyOutput struct {
	IP          string `json:"ip"          example:"95.163.1.10"`
	Whitelisted bool   `json:"whitelisted" example:"true"`
	Label       string `json:"label,omitempty" example:"VK"`
	// CIDR is the text the annotator embeds in display names
	CIDR string `json:"cidr,omitempty" example:"CIDR: VK"`
}

// InspectInput is one descriptor line
type InspectInput struct {
	Line string `json:"line" validate:"required,single_line,max=8192" example:"vless://uuid@95.163.1.10:443?security=reality&sni=vk.com#node"`
}

// InspectOutput is what the pipeline derives from one line
type InspectOutput struct {
	Scheme      string `json:"scheme"                example:"vless"`
	Opaque      bool   `json:"opaque"                example:"false"`
	Host        string `json:"host,omitempty"        example:"95.163.1.10"`
	Port        uint16 `json:"port,omitempty"        example:"443"`
	ServerName  string `json:"server_name,omitempty" example:"vk.com"`
	Key         string `json:"key"                   example:"vless|uuid|95.163.1.10|443|reality|vk.com"`
	Whitelisted bool   `json:"whitelisted"           example:"true"`
	Label       string `json:"label,omitempty"       example:"VK"`
	// Excluded is the reason of the first matching exclusion pattern
	Excluded string `json:"excluded,omitempty" example:"contains: 01010101"`
	// DisplayName is the name the line would get as the first entry
	DisplayName string `json:"display_name" example:"1. 🇷🇺 VLESS | SNI: vk.com | CIDR: VK | t.me/wlrus"`
}

// CheckInput is a batch of lines to run through exclusion
type CheckInput struct {
	Lines []string `json:"lines" validate:"required,min=1,max=5000,dive,single_line,max=8192"`
}

// ExcludedLine is one dropped line
type ExcludedLine struct {
	Line   string `json:"line"`
	Reason string `json:"reason" example:"remark contains: #bad"`
}

// ReasonCount counts drops per reason
type ReasonCount struct {
	Reason string `json:"reason" example:"remark contains: #bad"`
	Count  int    `json:"count"  example:"3"`
}

// CheckOutput splits the batch the way a run would
type CheckOutput struct {
	Kept     []string       `json:"kept"`
	Excluded []ExcludedLine `json:"excluded"`
	Stats    []ReasonCount  `json:"stats"`
}
