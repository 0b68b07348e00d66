package cleaner

import (
	"fmt"

	"github.com/David-Botos/prtr-cleaner/pkg/model"
)

// productNames maps the regulatory activity descriptions of TchumPeilutAtarSvivati
// to display labels
var productNames = map[string]string{
	"74 - טיפול ועיבוד חלב בלבד, אם כמות תשומת החלב עולה על 200 טון ליום":
		"74- טיפול ועיבוד חלב בלבד",
	"72 - שחיטה של בעלי חיים בקיבולת של 50 טון ליום":
		"72- שחיטה של בעלי חיים",
	"20 - ייצור מלט באמצעות כבשנים סובבים (Rotary Kilns) בעלי כושר ייצור של 500 טון ליום, או בכבשנים אחרים (furnaces) בעלי כושר ייצור של 50 טון ליום":
		"20- ייצור מלט באמצעות כבשנים סובבים או בכבשנים אחרים",
	"19 - ייצור אספלט":
		"19- ייצור אספלט",
	"14 - ייצור והפקה של מתכות לא ברזיליות גולמיות ממחצבים, עופרות, תרכיזים, או חומרי גלם שניוניים על ידי תהליכים מטאלורגיים, כימיים או אלקטרוליטיים":
		"14- ייצור והפקה של מתכות לא ברזיליות גולמיות",
	"56 - פעילות שנעשה בה שימוש במיתקנים לטיפול או סילוק של שפכים בספיקה של 1,000 מטר מעוקב ליום":
		"56- פעילות שנעשה בה שימוש במיתקנים לטיפול או סילוק של שפכים",
	"52 - טיפול או שילוב של טיפול וסילוק, של פסולת לא מסוכנת בקיבולת של 50 טון ליום הכוללת אחת או יותר מפעילויות המנויות, למעט טיפול בשפכים שאינם שפכי תעשייה":
		"52- טיפול או שילוב של טיפול וסילוק, של פסולת לא מסוכנת למעט טיפול בשפכים שאינם שפכי תעשייה",
	"28 - ייצור פחממנים המכילים חמצן כגון אלכוהולים, אלדהידים, קטונים, חומצות קרבוקסיליות, אסטרים, אצטטים, אתרים, פרוקסידים, שרפים אפוקסים":
		"28- ייצור פחממנים",
	"53 - תפעול מטמנות בקיבולת של 10 טון ליום או בקיבולת כללית העולה על 25,000 טון":
		"53- תפעול מטמנות",
	"54 - מיתקן נייח וקבוע שבו נעשת העברה של פסולת או מיון של פסולת לרכיביה":
		"54- מיתקן נייח וקבוע שבו נעשת העברה של פסולת או מיון של פסולת לרכיביה",
	"70 - מיתקנים לגידול עופות בקיבולת של 40,000 עופות":
		"70- מיתקנים לגידול עופות",
	"41 - ייצור מלחים כגון אמוניום כלוריד, פוטסיום כלורט, פוטסיום קרבונט, סודיום קרבונט, פרבורט, ניטרט כסף (Silver nitrate)":
		"41- ייצור מלחים",
	"68 - התפלת מים בספיקה של 30 מיליון מטר מעוקב בשנה":
		"68- התפלת מים",
	"16 - טיפול פני השטח של מתכות וחומרים פלסטיים על ידי תהליך כימי או אלקטרוליטי באמבטיות טיפול שנפחן הכולל 30 מטר מעוקב":
		"16- טיפול פני השטח של מתכות וחומרים פלסטיים",
	"59 - ייצור נייר וקרטון בכושר ייצור העולה על 20 טון ליום":
		"59- ייצור נייר וקרטון",
	"21 - ייצור סיד בכבשנים בעלי כושר ייצור של  50 טון ליום":
		"21- ייצור סיד בכבשנים",
	"55 - פעילות שנעשה בה שימוש במיתקנים לכילוי או מיחזור של פגרי בעלי חיים ופסדים, בקיבולת של 10 טון ליום":
		"55- פעילות שנעשה בה שימוש במיתקנים לכילוי או מיחזור של פגרי בעלי חיים ופסדים",
	"18 - מחצבות פתוחות (Open cast mining),":
		"18- מחצבות פתוחות",
	"73 - טיפול ועיבוד, של חומרי גלם מהחי או מהצומח, בין אם עובדו קודם לכן ובין אם לא, המיועדים לייצור מוצרי מזון, משקאות או מזון לבעלי חיים":
		"73- טיפול ועיבוד, של חומרי גלם מהחי או מהצומח,לייצור מוצרי מזון, משקאות או מזון לבעלי חיים",
	"47 - טיפול או סילוק של פסולת מסוכנת בכמות של 10 טון ליום באמצעות הפעילויות המנויות":
		"47- טיפול או סילוק של פסולת מסוכנת",
	"02 - הפקת דלקים במצב צבירה גז, נוזל או מוצק, בקנה מידה תעשייתי":
		"2- הפקת דלקים במצב צבירה גז, נוזל או מוצק, בקנה מידה תעשייתי",
	"45 - תהליכים כימיים וביולוגיים לייצור מוצרים  פרמצבטיים כולל חומרי ביניים":
		"45- תהליכים כימיים וביולוגיים לייצור מוצרים  פרמצבטיים כולל חומרי ביניים",
	"15 - התכה, כולל סגסוגות (alloyage), של מתכות לא ברזיליות, כולל מוצרים מוחזרים והפעלת בתי יציקה למתכות לא ברזיליות בכושר התכה העולה על 4 טון ליום לעופרת וקדמיום ו-20 טון ליום לכל שאר המתכות":
		"15- התכה, כולל סגסוגות של מתכות לא ברזיליות",
	"64 - טיפול פני שטח של חומרים, רכיבים או מוצרים, באמצעות  ממיסים אורגניים בכמות של 150 קילוגרם לשעה או 200 טון לשנה, במיוחד להדפסה, ציפוי, ניקוי משמנים, עמידות למים, צביעה, ניקוי או אימפרגנציה וכדומה":
		"64- טיפול פני שטח של חומרים, רכיבים או מוצרים, באמצעות  ממיסים אורגניים",
	"06 - פעילות שנעשה בה שימוש במיתקן שריפה בהספק תרמי של  50 מגה וואט":
		"6- פעילות שנעשה בה שימוש במיתקן שריפה",
	"09 - פעילות שנעשה בה שימוש במיתקנים לייצור ברזל גולמי או פלדה (התכה ראשונית או שניונית) ובכלל זה יציקה רציפה, בעלי כושר ייצור של 2.5 טון לשעה":
		"9- פעילות שנעשה בה שימוש במיתקנים לייצור ברזל גולמי או פלדה",
	"51 - סילוק של פסולת לא מסוכנת בקיבולת של 50 טון ליום הכוללת אחת או יותר מפעילויות המנויות, למעט טיפול בשפכים שאינם שפכי תעשייה:":
		"51- סילוק של פסולת לא מסוכנת למעט טיפול",
	"27 - ייצור פחממנים פשוטים (לינארים או ציקלים, רוויים ושאינם רוויים, אליפטים או ארומטיים)":
		"27- ייצור פחממנים פשוטים",
	"38 - ייצור גזים כגון אמוניה, כלור או מימן כלורי, פלואור או מימן פלואורי, תחמוצות פחמן, תרכובות גופרית, תחמוצות חנקן, מימן, דו-תחמוצת הגפרית, קרבוניל כלוריד":
		"38- ייצור גזים",
	"69 - מיתקנים לגידול אינטנסיבי של חזירים בקיבולת של 2,000 חזירים (אשר משקלם עולה על 30 קילוגרם) או 750  חזירות (נקבות)":
		"69- מיתקנים לגידול אינטנסיבי של חזירים",
	"71 - מיתקנים לגידול דגים או רכיכות בקיבולת של 1,000 טון דגים או רכיכות לשנה":
		"71- מיתקנים לגידול דגים או רכיכות",
	"23 - פעילות שנעשה בה שימוש במיתקנים ליצור זכוכית כולל סיבי זכוכית, בעלי כושר המסה של 20 טון ליום":
		"23- פעילות שנעשה בה שימוש במיתקנים ליצור זכוכית כולל סיבי זכוכית",
	"44 - ייצור ביוצידים (נגד מיקרואורגניזמים) או מוצרים בסיסיים להגנת הצומח":
		"44- ייצור ביוצידים או מוצרים בסיסיים להגנת הצומח",
	"34 - ייצור חומרים פלסטיים (פולימרים, סיבים סינתטיים וסיבים המבוססים על צלולוס)":
		"34- ייצור חומרים פלסטיים",
	"39 - ייצור חומצות כגון חומצה כרומית, חומצה הידרופלואורית, חומצה זרחתית, חומצה חנקתית, חומצה הידרוכלורית, חומצה גפרתית, אולאום (Oleum), חומצות גפריתיות":
		"39- ייצור חומצות",
	"10 - פעילות שנעשה בה שימוש במיתקני ערגול בכושר ייצור של  20 טון פלדה גולמית לשעה":
		"10- פעילות שנעשה בה שימוש במיתקני ערגול",
	"26 - פעילות שנעשה בה שימוש במיתקנים ליצור מוצרים קרמים על ידי שריפה, כגון רעפים, לבנים, אריחים או פורצלן, בעלי כושר ייצור של 75 טון ליום או עם כבשנים בעלי נפח של 4 מטרים מעוקבים ועם צפיפות השמה לכבשן של 300 קילוגרם למטר מעוקב":
		"26- פעילות שנעשה בה שימוש במיתקנים ליצור מוצרים קרמים",
	"42 - ייצור תרכובות אנאורגניות לא מתכתיות או תחמוצות מתכת או תרכובות אנאורגניות אחרות כגון סידן קרביד, סיליקון, סיליקון קרביד":
		"42- ייצור תרכובות אנאורגניות",
	"43 - ייצור דשנים המבוססים על זרחן, חנקן או אשלגן (תרכובות פשוטות או מורכבות)":
		"43- ייצור דשנים",
	"57 - טיפול או סילוק של שפכים שהם תוצר של פעילויות מהסוגים המפורטים בטור ב' לתוספת זו":
		"57- טיפול או סילוק של שפכים",
	"32 - ייצור פחממנים הלוגנים":
		"32- ייצור פחממנים הלוגנים",
	"01 - זיקוק גז ודלקים":
		"1- זיקוק גז ודלקים",
	"37 - ייצור חומרים פעילי שטח ודטרגנטים":
		"37- ייצור חומרים פעילי שטח ודטרגנטים",
	"12 - יישום גלוון או ציפוי מתכת (fused metal coats) בכושר ייצור של 2 טון פלדה גולמית לשעה":
		"12- יישום גלוון או ציפוי מתכת",
	"58 - ייצור עיסה מעץ או מחומרים סיביים אחרים":
		"58- ייצור עיסה מעץ או מחומרים סיביים אחרים",
	"50 - סילוק או טיפול בפסולת במיתקנים לשריפה או לטיפול תרמי, בפסולת לא מסוכנת – בקיבולת של 3 טון לשעה, ובפסולת מסוכנת – בקיבולת של 10 טון ליום":
		"50- סילוק או טיפול בפסולת במיתקנים לשריפה או לטיפול תרמי, בפסולת לא מסוכנת או בפסולת מסוכנת",
	"62 - פעילויות מקדימות כגון שטיפה, הלבנה, מירצור או צביעת חוטים או טקסטיל, בכושר ייצור של 10 טון ליום":
		"62- פעילויות מקדימות כגון שטיפה, הלבנה, מירצור או צביעת חוטים או טקסטיל",
	"13 - פעילות שנעשה בה שימוש בבתי יציקה של מתכות ברזיליות בכושר ייצור של 20 טון ליום":
		"13- פעילות שנעשה בה שימוש בבתי יציקה של מתכות ברזיליות",
}

// ShortenName truncates the text cells of a column to at most n characters
func ShortenName(tbl *model.Table, col string, n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: length must be positive, got %d", model.ErrInvalidInput, n)
	}
	if err := tbl.MustHave(col); err != nil {
		return err
	}

	for i := 0; i < tbl.NumRows(); i++ {
		s, ok := tbl.Get(i, col).Str()
		if !ok {
			continue
		}
		if r := []rune(s); len(r) > n {
			_ = tbl.Set(i, col, model.Text(string(r[:n])))
		}
	}
	return nil
}

// ShortenProductNames replaces known activity descriptions with their short labels.
// Unknown values are left untouched. Returns the number of replaced cells.
func ShortenProductNames(tbl *model.Table, col string) (int, error) {
	if err := tbl.MustHave(col); err != nil {
		return 0, err
	}

	replaced := 0
	for i := 0; i < tbl.NumRows(); i++ {
		s, ok := tbl.Get(i, col).Str()
		if !ok {
			continue
		}
		if short, found := productNames[s]; found {
			_ = tbl.Set(i, col, model.Text(short))
			replaced++
		}
	}
	return replaced, nil
}

// ProductLabel returns the display label for an activity description
func ProductLabel(description string) (string, bool) {
	short, ok := productNames[description]
	return short, ok
}
