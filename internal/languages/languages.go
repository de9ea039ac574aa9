package languages

type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var targetLanguageMap = map[string]string{
	"ar": "Arabic",
	"bg": "Bulgarian",
	"cs": "Czech",
	"da": "Danish",
	"de": "German",
	"el": "Greek",
	"en": "English",
	"es": "Spanish",
	"fa": "Persian",
	"fi": "Finnish",
	"fr": "French",
	"he": "Hebrew",
	"hi": "Hindi",
	"hr": "Croatian",
	"hu": "Hungarian",
	"id": "Indonesian",
	"it": "Italian",
	"ja": "Japanese",
	"ko": "Korean",
	"lt": "Lithuanian",
	"lv": "Latvian",
	"ms": "Malay",
	"nl": "Dutch",
	"no": "Norwegian",
	"pl": "Polish",
	"pt": "Portuguese",
	"ro": "Romanian",
	"ru": "Russian",
	"sk": "Slovak",
	"sl": "Slovenian",
	"sr": "Serbian",
	"sv": "Swedish",
	"th": "Thai",
	"tr": "Turkish",
	"uk": "Ukrainian",
	"ur": "Urdu",
	"vi": "Vietnamese",
	"zh": "Chinese",
}

func LanguageName(code string) string {
	if name, ok := targetLanguageMap[code]; ok {
		return name
	}
	return ""
}

func IsValidTargetLanguage(code string) bool {
	_, ok := targetLanguageMap[code]
	return ok
}

func TargetLanguages() []Language {
	langs := make([]Language, 0, len(targetLanguageMap))
	for code, name := range targetLanguageMap {
		langs = append(langs, Language{Code: code, Name: name})
	}
	return langs
}
