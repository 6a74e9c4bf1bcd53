package models

// DefaultCategory is selected when the user has not picked one yet
const DefaultCategory = "CET-4"

// Category is a study area offered by the lesson generator
type Category struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Categories lists every study category in display order
var Categories = []Category{
	{"Primary", "小学必备"}, {"Junior", "初中通关"}, {"Senior", "高中核心"},
	{"CET-4", "大学四级"}, {"CET-6", "大学六级"}, {"Postgrad", "考研必胜"},
	{"IELTS", "雅思核心"}, {"TOEFL", "托福高频"}, {"GRE", "GRE词霸"}, {"TEM-8", "专业八级"},
	{"GMAT", "GMAT精英"}, {"SAT", "SAT高分"}, {"TOEIC", "托业实战"}, {"BEC", "商务英语"},
	{"Oxford3000", "牛津3000"}, {"NCE-1", "新概念一"}, {"NCE-2", "新概念二"}, {"NCE-3", "新概念三"},
	{"Business", "外企商务"}, {"Tech", "程序员英语"}, {"Medical", "医学日常"},
	{"Law", "法律正义"}, {"Game", "电竞术语"}, {"Pet", "萌宠生活"},
	{"Movie", "追剧达人"}, {"Dating", "浪漫约会"}, {"Travel", "出境旅游"},
	{"Gym", "运动健身"}, {"Foodie", "美食探店"}, {"Nomad", "数字游民"},
	{"News", "外刊时政"}, {"Art", "艺术鉴赏"}, {"Finance", "财富自由"}, {"Science", "硬核科学"},
	{"Literature", "文学经典"}, {"Fashion", "时尚潮流"}, {"History", "历史回响"},
	{"Psychology", "心理洞察"}, {"Architecture", "建筑美学"}, {"Music", "乐理殿堂"},
}

// LookupCategory finds a category by its id
func LookupCategory(id string) (Category, bool) {
	for _, c := range Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}
