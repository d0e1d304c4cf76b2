package main

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

var RecommenderSysPrompt = `你是一个专业的深夜美食决策顾问，面向中国一二线城市用户。根据用户的状态推荐真实可点的外卖或便利店食物。必须严格返回JSON格式。`

var TimeMap = map[string]string{
	"daytime":   "白天",
	"nighttime": "夜晚/深夜",
}

var MoodMap = map[string]string{
	"stressed":      "压力很大，需要释放",
	"homesick":      "有点想家，渴望温暖",
	"finished_work": "终于忙完了，想奖励自己",
	"lonely":        "感觉有些孤单，需要陪伴",
}

type MoodFood struct {
	Foods  []string
	Style  string
	Reason string
}

var MoodFoodMap = map[string]MoodFood{
	"stressed": {
		Foods:  []string{"麻辣烫", "火锅", "烧烤", "炸鸡", "麻辣香锅", "小龙虾", "辣子鸡"},
		Style:  "重口味、辣的、解压型",
		Reason: "辣味能刺激多巴胺分泌，帮助释放压力",
	},
	"homesick": {
		Foods:  []string{"饺子", "馄饨", "面条", "砂锅", "粥", "红烧肉", "排骨汤", "米饭套餐"},
		Style:  "家常菜、温暖的、妈妈的味道",
		Reason: "温热的家常味道能带来安慰和归属感",
	},
	"finished_work": {
		Foods:  []string{"寿司", "日料", "牛排", "披萨", "奶茶", "甜品", "蛋糕", "精致套餐"},
		Style:  "品质稍高、享受型、犒劳自己",
		Reason: "忙碌后值得用美食奖励自己",
	},
	"lonely": {
		Foods:  []string{"关东煮", "便利店饭团", "一人食套餐", "拉面", "盖浇饭", "咖喱饭"},
		Style:  "单人份、治愈系、暖心",
		Reason: "一人份的温暖食物，陪伴孤独时刻",
	},
}

type HungerFood struct {
	Foods   []string
	Portion string
}

var HungerFoodMap = map[string]HungerFood{
	"culinary_hug": {
		Foods:   []string{"甜品", "奶茶", "小食", "点心", "面包"},
		Portion: "小份，不求饱只求暖心",
	},
	"crunch": {
		Foods:   []string{"薯片", "坚果", "鸡米花", "炸物", "锅巴"},
		Portion: "零食型，嘎嘣脆的口感",
	},
	"energy_needed": {
		Foods:   []string{"大份套餐", "米饭", "面条", "盖浇饭", "快餐"},
		Portion: "份量足，快速补充能量",
	},
}

var HungerMap = map[string]string{
	"culinary_hug":  "想被美食安慰一下",
	"crunch":        "单纯想嚼点什么",
	"energy_needed": "急需能量补给",
}

var BudgetMap = map[int]string{
	1: "尽量省钱",
	2: "经济实惠",
	3: "正常消费",
	4: "稍微奢侈一下",
	5: "今天不在乎价格",
}

// PriceRange is the price band (in yuan) for one budget level, plus the
// search keywords that fit that band.
type PriceRange struct {
	Min      int
	Max      int
	Keywords string
}

var PriceRanges = map[int]PriceRange{
	1: {Min: 5, Max: 15, Keywords: "优惠套餐 特价 折扣 小份"},
	2: {Min: 15, Max: 25, Keywords: "套餐 单人餐 经济"},
	3: {Min: 25, Max: 40, Keywords: "招牌 热销"},
	4: {Min: 40, Max: 80, Keywords: "品质 甄选 双人餐"},
	5: {Min: 80, Max: 200, Keywords: "大餐 豪华 精选 多人餐"},
}

// 京东秒送略贵
var PlatformPriceFactor = map[string]float64{
	"meituan": 1.0,
	"eleme":   1.0,
	"jd":      1.1,
	"taobao":  1.0,
}

var beijing = time.FixedZone("CST", 8*60*60)

func priceRangeFor(budgetLevel int) PriceRange {
	if r, ok := PriceRanges[budgetLevel]; ok {
		return r
	}

	return PriceRanges[3]
}

func moodFoodFor(mood string) MoodFood {
	if f, ok := MoodFoodMap[mood]; ok {
		return f
	}

	return MoodFoodMap["stressed"]
}

func hungerFoodFor(hunger string) HungerFood {
	if f, ok := HungerFoodMap[hunger]; ok {
		return f
	}

	return HungerFoodMap["culinary_hug"]
}

// userState is the block embedded verbatim into the prompt so the model
// sees the full picture in one place.
type userState struct {
	CurrentTime   string `json:"current_time"`
	Scene         string `json:"scene"`
	Mood          string `json:"mood"`
	MoodFoods     string `json:"mood_foods"`
	Hunger        string `json:"hunger"`
	HungerPortion string `json:"hunger_portion"`
	Exercise      string `json:"exercise"`
	Budget        string `json:"budget"`
	IsDaytime     bool   `json:"is_daytime"`
}

// buildPrompt renders the full user prompt for one request. It is pure
// given the clock: the same request and instant always produce the same
// string. Unknown mood, hunger or budget values fall back to stressed,
// culinary_hug and level 3.
func buildPrompt(req *RecommendRequest, now time.Time) string {
	timeDesc, ok := TimeMap[req.TimeOfDay]
	if !ok {
		timeDesc = "未知时间"
	}
	moodDesc, ok := MoodMap[req.Mood]
	if !ok {
		moodDesc = "一般"
	}
	hungerDesc, ok := HungerMap[req.HungerLevel]
	if !ok {
		hungerDesc = "有点饿"
	}
	exerciseDesc := "今天没运动"
	if req.ExercisedToday != nil && *req.ExercisedToday {
		exerciseDesc = "今天运动过"
	}
	budgetDesc, ok := BudgetMap[req.budget()]
	if !ok {
		budgetDesc = "正常消费"
	}

	beijingTime := now.In(beijing)
	hour := beijingTime.Hour()
	timeStr := beijingTime.Format("15:04")

	isDaytime := hour >= 6 && hour < 18
	if req.IsDaytime != nil {
		isDaytime = *req.IsDaytime
	}
	dayNightDesc := "夜间"
	if isDaytime {
		dayNightDesc = "白天"
	}

	// 白天不要提"夜宵"
	sceneLabel := timeDesc
	if req.TimeContext != nil && req.TimeContext.Label != "" {
		sceneLabel = req.TimeContext.Label
	}
	if isDaytime && strings.Contains(sceneLabel, "夜") {
		switch {
		case hour < 11:
			sceneLabel = "早餐"
		case hour < 14:
			sceneLabel = "午餐"
		case hour < 17:
			sceneLabel = "下午茶"
		default:
			sceneLabel = "晚餐"
		}
	}

	locationInfo := "用户位置：未知（推荐全国连锁或常见商家）"
	if req.Location != nil {
		locationInfo = fmt.Sprintf("用户位置：纬度%.4f，经度%.4f（请优先推荐附近商家）", req.Location.Latitude, req.Location.Longitude)
	}

	moodFood := moodFoodFor(req.Mood)
	hungerFood := hungerFoodFor(req.HungerLevel)
	priceRange := priceRangeFor(req.budget())

	state, _ := json.MarshalIndent(userState{
		CurrentTime:   timeStr,
		Scene:         sceneLabel,
		Mood:          moodDesc,
		MoodFoods:     strings.Join(moodFood.Foods, "、"),
		Hunger:        hungerDesc,
		HungerPortion: hungerFood.Portion,
		Exercise:      exerciseDesc,
		Budget:        budgetDesc,
		IsDaytime:     isDaytime,
	}, "", "  ")

	excluded := "无"
	if len(req.ExcludedFoods) > 0 {
		excluded = strings.Join(req.ExcludedFoods, "、")
	}

	nightRule := "可以使用夜宵相关描述"
	if isDaytime {
		nightRule = "白天场景，不要提及\"夜宵\"或\"深夜\"等字眼"
	}

	firstKeyword := strings.Fields(priceRange.Keywords)[0]
	midPrice := int(math.Round(float64(priceRange.Min+priceRange.Max) / 2))

	var b strings.Builder
	fmt.Fprintf(&b, `你是一个外卖推荐专家，帮助用户快速做出饮食决策。

【当前时间】%s（%s）
【用户位置】%s
【用户状态】
%s

【⚠️ 心情驱动的推荐（重要！）】
用户心情：%s
推荐食物风格：%s
推荐理由：%s
⭐ 优先推荐这些食物：%s

【饥饿状态】
%s
份量偏好：%s
适合的食物类型：%s

【预算约束】⚠️ 价格必须在 %d-%d 元之间
用户选择了"%s"档位，推荐的菜品单价必须在 %d-%d 元范围内。
搜索时可附加关键词：%s

【核心任务】
根据用户的心情和饥饿状态，推荐5个真实可点的外卖或便利店商品。

【输出要求】
必须严格返回以下JSON格式，不要有任何其他文字：

`,
		timeStr, dayNightDesc,
		locationInfo,
		state,
		moodDesc, moodFood.Style, moodFood.Reason, strings.Join(moodFood.Foods, "、"),
		hungerDesc, hungerFood.Portion, strings.Join(hungerFood.Foods, "、"),
		priceRange.Min, priceRange.Max,
		budgetDesc, priceRange.Min, priceRange.Max,
		priceRange.Keywords,
	)

	fmt.Fprintf(&b, `{
  "scene": "%s",
  "budget_level": %d,
  "price_range": "%d-%d元",
  "recommendations": [
    {
      "food_name": "具体菜品名称（如：香辣鸡腿堡套餐）",
      "restaurant": "商家名称（如：肯德基 中关村店）",
      "platform": "meituan",
      "estimated_price": %d,
      "reason": "推荐理由，不超过15字",
      "jump_keyword": "肯德基 香辣鸡腿堡 %s",
      "regret_score": 2,
      "regret_reason": "份量适中，快餐标准化"
    }
  ],
  "alternatives": [
    {
      "food_name": "备选菜品",
      "restaurant": "备选商家",
      "platform": "eleme",
      "estimated_price": %d,
      "jump_keyword": "搜索关键词"
    }
  ]
}

`,
		sceneLabel, req.budget(),
		priceRange.Min, priceRange.Max,
		midPrice, firstKeyword,
		priceRange.Min,
	)

	fmt.Fprintf(&b, `【关键规则】
1. ⚠️ 必须推荐当前时间（%s）正在营业的商家
2. ⚠️ 价格必须严格在 %d-%d 元之间
3. ⚠️ 优先推荐24小时营业或营业到凌晨的商家
4. ⚠️ 推荐附近连锁店（肯德基、麦当劳、便利蜂、全家、永和大王、沙县小吃等）
5. platform 必须是 "meituan"、"eleme" 或 "jd"（京东秒送）
6. jump_keyword 格式："商家名 菜品名"，可附加：%s
7. recommendations 必须给5个
8. alternatives 给2个备选
9. %s
10. 只返回JSON，禁止任何解释文字
11. ⚠️ 【重要】以下食品用户已经看过但没下单，禁止推荐：%s`,
		timeStr,
		priceRange.Min, priceRange.Max,
		priceRange.Keywords,
		nightRule,
		excluded,
	)

	return b.String()
}
