package helpline

// Helpline describes a crisis contact shown in crisis replies and on the page.
type Helpline struct {
	Region  string `json:"region"`
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Outside string `json:"outside"` // 所在地区之外的用户应如何求助
}

// DefaultRegion 未配置时使用的地区。
const DefaultRegion = "india"

// Seed provides the built-in helpline directory.
func Seed() []Helpline {
	return []Helpline{
		{
			Region:  "india",
			Name:    "India",
			Contact: "KIRAN Helpline: 1800-599-0019 | Tele-MANAS: 14416",
			Outside: "If you are outside India, contact local emergency services now.",
		},
		{
			Region:  "international",
			Name:    "International",
			Contact: "If you're outside India, check local emergency numbers or local mental health helplines.",
			Outside: "If you are in immediate danger, contact local emergency services now.",
		},
	}
}
