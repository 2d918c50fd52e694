// Демо-данные каталога.

package catalog

// DemoProducts возвращает стандартный набор из восьми демо-товаров.
//
// Используется как fallback когда seed файл не задан,
// и в тестах — чтобы не зависеть от файловой системы.
func DemoProducts() []Product {
	return []Product{
		{
			ID:          "p-001",
			Name:        "Чайник электрический Molnia 1.7л",
			Description: "Стеклянный чайник с подсветкой и автоотключением",
			Price:       259900,
			Category:    "бытовая техника",
			Stock:       12,
			ImageKey:    "products/p-001.jpg",
		},
		{
			ID:          "p-002",
			Name:        "Кофемолка жерновая Barista Pro",
			Description: "40 степеней помола, для эспрессо и фильтр-кофе",
			Price:       489900,
			Category:    "бытовая техника",
			Stock:       4,
			ImageKey:    "products/p-002.jpg",
		},
		{
			ID:          "p-003",
			Name:        "Наушники беспроводные Volna X2",
			Description: "Активное шумоподавление, до 30 часов работы",
			Price:       349900,
			Category:    "электроника",
			Stock:       23,
			ImageKey:    "products/p-003.jpg",
		},
		{
			ID:          "p-004",
			Name:        "Умная колонка Eho Mini",
			Description: "Голосовой ассистент и мультирум из коробки",
			Price:       299900,
			Category:    "электроника",
			Stock:       0,
			ImageKey:    "products/p-004.jpg",
		},
		{
			ID:          "p-005",
			Name:        "Чай зелёный Сенча, 100 г",
			Description: "Японский зелёный чай первого сбора",
			Price:       45900,
			Category:    "продукты",
			Stock:       40,
			ImageKey:    "products/p-005.jpg",
		},
		{
			ID:          "p-006",
			Name:        "Кофе зерновой Бразилия Сантос, 1 кг",
			Description: "Средняя обжарка, ноты ореха и какао",
			Price:       129900,
			Category:    "продукты",
			Stock:       15,
			ImageKey:    "products/p-006.jpg",
		},
		{
			ID:          "p-007",
			Name:        "Плед шерстяной в клетку",
			Description: "130x170 см, овечья шерсть",
			Price:       189900,
			Category:    "дом и уют",
			Stock:       7,
			ImageKey:    "products/p-007.jpg",
		},
		{
			ID:          "p-008",
			Name:        "Лампа настольная Lumen S",
			Description: "Регулировка яркости и температуры света",
			Price:       99900,
			Category:    "дом и уют",
			Stock:       2,
			ImageKey:    "products/p-008.jpg",
		},
	}
}
