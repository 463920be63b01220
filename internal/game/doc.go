// Package game знает язык игрового бота: каталог состояний (State) с
// предикатами по тексту и наличию кнопок, маркеры кнопок и разбор числовых
// показателей (энергия, здоровье) из текста сообщения.
//
// Предикаты независимы и не имеют побочных эффектов. Если тексты двух
// состояний пересекаются, выигрывает порядок в таблице диспетчера, а не
// классификатор.
package game
