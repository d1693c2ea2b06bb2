package page

import (
	"context"
	"errors"
	"testing"
	"testing/quick"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingDeliverer struct {
	got   []ContactForm
	err   error
	calls int
}

func (d *recordingDeliverer) Deliver(_ context.Context, form ContactForm) (Receipt, error) {
	d.calls++
	d.got = append(d.got, form)
	if d.err != nil {
		return Receipt{}, d.err
	}
	return Receipt{ID: "msg-1", Sink: "test", DeliveredAt: time.Unix(0, 0).UTC()}, nil
}

func TestNewIsEmpty(t *testing.T) {
	want := State{MenuOpen: false, Form: ContactForm{Name: "", Email: "", Message: ""}}
	if diff := cmp.Diff(want, New()); diff != "" {
		t.Fatalf("initial state mismatch (-want +got):\n%s", diff)
	}
}

func TestToggleMenuParity(t *testing.T) {
	prop := func(n uint8) bool {
		s := New()
		for i := 0; i < int(n); i++ {
			s.ToggleMenu()
		}
		return s.MenuOpen == (n%2 == 1)
	}
	if err := quick.Check(prop, nil); err != nil {
		t.Fatal(err)
	}
}

func TestSelectSectionAlwaysClosesMenu(t *testing.T) {
	for _, open := range []bool{false, true} {
		for _, sec := range Sections {
			s := State{MenuOpen: open}
			got, ok := s.SelectSection(string(sec))
			require.True(t, ok)
			require.Equal(t, sec, got)
			require.False(t, s.MenuOpen, "menu must be closed after selecting %s (was open=%v)", sec, open)
		}
	}
}

func TestSelectSectionUnknownIsSilent(t *testing.T) {
	s := State{MenuOpen: true, Form: ContactForm{Name: "Jo"}}
	got, ok := s.SelectSection("checkout")
	require.False(t, ok)
	require.Empty(t, got)
	require.False(t, s.MenuOpen)
	require.Equal(t, "Jo", s.Form.Name, "unknown sections must not touch the form")
}

func TestUpdateFieldTouchesOnlyThatField(t *testing.T) {
	prop := func(v, email, message string) bool {
		s := State{Form: ContactForm{Email: email, Message: message}}
		if err := s.UpdateField(FieldName, v); err != nil {
			return false
		}
		return s.Form == ContactForm{Name: v, Email: email, Message: message}
	}
	if err := quick.Check(prop, nil); err != nil {
		t.Fatal(err)
	}

	s := New()
	require.NoError(t, s.UpdateField(FieldEmail, "a@b.com"))
	require.NoError(t, s.UpdateField(FieldMessage, "hello"))
	require.Equal(t, ContactForm{Email: "a@b.com", Message: "hello"}, s.Form)
	require.Equal(t, "hello", s.Form.Value(FieldMessage))
}

func TestUpdateFieldRejectsUnknownNames(t *testing.T) {
	s := State{Form: ContactForm{Name: "Jo"}}
	err := s.UpdateField(Field("phone"), "555")
	require.ErrorIs(t, err, ErrUnknownField)
	require.Equal(t, ContactForm{Name: "Jo"}, s.Form)
}

func TestSubmitResetsFormAfterDelivery(t *testing.T) {
	d := &recordingDeliverer{}
	s := New()
	require.NoError(t, s.UpdateField(FieldEmail, "a@b.com"))
	require.NoError(t, s.UpdateField(FieldName, "Jo"))
	require.NoError(t, s.UpdateField(FieldMessage, "Need a navy suit"))

	conf, err := s.Submit(context.Background(), d)
	require.NoError(t, err)
	require.Equal(t, ConfirmationText, conf.Message)
	require.Equal(t, "msg-1", conf.Receipt.ID)
	require.Equal(t, []ContactForm{{Name: "Jo", Email: "a@b.com", Message: "Need a navy suit"}}, d.got)

	if diff := cmp.Diff(New(), s); diff != "" {
		t.Fatalf("state after submit mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitKeepsFormWhenDeliveryFails(t *testing.T) {
	boom := errors.New("smtp unreachable")
	d := &recordingDeliverer{err: boom}
	s := State{Form: ContactForm{Name: "Jo", Email: "a@b.com", Message: "hi"}}

	_, err := s.Submit(context.Background(), d)
	require.ErrorIs(t, err, ErrDelivery)
	require.ErrorIs(t, err, boom)
	require.Equal(t, ContactForm{Name: "Jo", Email: "a@b.com", Message: "hi"}, s.Form)

	// retry succeeds and resets
	d.err = nil
	_, err = s.Submit(context.Background(), d)
	require.NoError(t, err)
	require.Equal(t, 2, d.calls)
	require.Equal(t, ContactForm{}, s.Form)
}

func TestSubmitWithoutDeliverer(t *testing.T) {
	s := State{Form: ContactForm{Name: "Jo"}}
	_, err := s.Submit(context.Background(), nil)
	require.ErrorIs(t, err, ErrDelivery)
	require.Equal(t, "Jo", s.Form.Name)
}

func TestScenarioToggleThenSelect(t *testing.T) {
	s := New()
	trace := []bool{s.MenuOpen}
	s.ToggleMenu()
	trace = append(trace, s.MenuOpen)
	s.SelectSection("shop")
	trace = append(trace, s.MenuOpen)
	require.Equal(t, []bool{false, true, false}, trace)
}

func TestScenarioFillAndSubmit(t *testing.T) {
	s := New()
	require.NoError(t, s.UpdateField(FieldEmail, "a@b.com"))
	require.NoError(t, s.UpdateField(FieldName, "Jo"))
	conf, err := s.Submit(context.Background(), DelivererFunc(func(context.Context, ContactForm) (Receipt, error) {
		return Receipt{ID: "r"}, nil
	}))
	require.NoError(t, err)
	require.NotEmpty(t, conf.Message)
	require.Equal(t, State{}, s)
}

func TestParseSection(t *testing.T) {
	for _, id := range []string{"home", "about-us", "shop", "contact"} {
		_, ok := ParseSection(id)
		require.True(t, ok, id)
	}
	for _, id := range []string{"", "Home", "about us", "#shop"} {
		_, ok := ParseSection(id)
		require.False(t, ok, id)
	}
}
