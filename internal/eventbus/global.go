package eventbus

// globalBus – шина процесса. Компоненты без явно заданной шины
// публикуют в неё.
var globalBus EventBus

// Init устанавливает глобальную шину.
func Init(bus EventBus) { globalBus = bus }

// Global возвращает глобальную шину или nil.
func Global() EventBus { return globalBus }
