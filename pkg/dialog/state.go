package dialog

// Dialog states are a tagged variant: each state carries exactly the data
// it needs, so there is no nullable current-item field that is only valid
// sometimes.
type state interface {
	name() string
	nextAction() string
}

type greeting struct{}

func (greeting) name() string       { return "GREETING" }
func (greeting) nextAction() string { return "주문하실 메뉴를 말씀해주세요" }

type menuSelection struct{}

func (menuSelection) name() string       { return "MENU_SELECTION" }
func (menuSelection) nextAction() string { return "메뉴 이름을 말씀해주세요" }

type quantitySelection struct {
	pending CartItem
}

func (quantitySelection) name() string       { return "QUANTITY_SELECTION" }
func (quantitySelection) nextAction() string { return "수량을 말씀해주세요" }

type orderConfirmation struct{}

func (orderConfirmation) name() string { return "ORDER_CONFIRMATION" }
func (orderConfirmation) nextAction() string {
	return "주문을 완료하시려면 '주문 완료', 추가하시려면 '더 주문'이라고 말씀해주세요"
}
