package tmpl_test

import (
	"context"
	"fmt"
	"os"

	"github.com/ardnew/ttc/script"
	"github.com/ardnew/ttc/tmpl"
)

func Example() {
	ctx := context.Background()

	t, err := tmpl.Parse(ctx, "Hello <#= Name #>!", tmpl.WithEvaluator(script.New()))
	if err != nil {
		fmt.Println(err)

		return
	}

	out, err := t.Render(ctx, tmpl.Params{"Name": "World"})
	if err != nil {
		fmt.Println(err)

		return
	}

	fmt.Println(out)
	// Output:
	// Hello World!
}

func Example_helper() {
	ctx := context.Background()

	src := "<#+ def twice n : n * 2 #><#= twice(2) #>,<#= twice(5) #>"

	t, err := tmpl.Parse(ctx, src, tmpl.WithEvaluator(script.New()))
	if err != nil {
		fmt.Println(err)

		return
	}

	out, _ := t.Render(ctx, nil)
	fmt.Println(out)
	// Output:
	// 4,10
}

func ExampleGenerate() {
	t, err := tmpl.Parse(context.Background(),
		"<#@ import namespace=\"text\" #>Hi <#= text.title(name) #>\n")
	if err != nil {
		fmt.Println(err)

		return
	}

	fmt.Print(tmpl.Generate(t.Blocks()))
	// Output:
	// import "text"
	// begin
	//     write("Hi ")
	//     write( text.title(name) )
	//     write("\n")
	//     return
	// end
}

func ExampleTemplate_Print() {
	t, err := tmpl.Parse(context.Background(), "a<#= b #>")
	if err != nil {
		fmt.Println(err)

		return
	}

	_ = t.Print(context.Background(), os.Stdout, 2)
	// Output:
	// text 1:1 [0,1)
	//   "a"
	// expression 1:2 [1,9)
	//   " b "
}
